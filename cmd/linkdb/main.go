// linkdb is the LinkDB component server: topology CRUD, interface
// reservation, and spectrum allocation (spec §4.1).
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/apiserver"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/linkdb"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/linkdbapi"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/store"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	flag.Parse()
	if v := os.Getenv("LINKDB_ADDR"); v != "" {
		*addr = v
	}

	svc := linkdb.NewService(store.NewMemoryStore())
	srv := linkdbapi.New(svc, apiserver.DefaultOptions())

	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("linkdb: shutdown signal received")
		cancel()
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutCancel()
		if err := srv.GracefulShutdown(shutCtx); err != nil {
			log.Printf("linkdb: graceful shutdown error: %v", err)
		}
	}()

	log.Printf("starting linkdb on %s", *addr)
	if err := srv.ListenAndServe(*addr); err != nil && err.Error() != "http: Server closed" {
		log.Fatalf("linkdb: server error: %v", err)
	}
}
