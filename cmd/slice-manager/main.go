// slice-manager is the Slice Manager component server: vOp activation,
// listing, and deactivation (spec §4.2).
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/apiserver"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/config"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/kafkaio"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/linkdbclient"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/sliceman"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/slicemanapi"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/store"
)

func main() {
	addr := flag.String("addr", ":8100", "listen address")
	linkdbURL := flag.String("linkdb-url", "http://localhost:8000", "LinkDB base URL")
	flag.Parse()
	if v := os.Getenv("SLICE_MANAGER_ADDR"); v != "" {
		*addr = v
	}
	if v := os.Getenv("LINKDB_URL"); v != "" {
		*linkdbURL = v
	}

	cfg := config.Load()
	brokers := strings.Split(cfg.KafkaBroker, ",")

	svc := sliceman.New(
		store.NewMemoryStore().VOps(),
		linkdbclient.New(*linkdbURL),
		kafkaio.NewTopicAdmin(brokers),
		sliceman.Options{
			Partitions:            cfg.TopicPartitions,
			ReplicationFactor:     cfg.TopicReplicationFac,
			MonitoringRetentionMs: cfg.MonitoringRetentionMs,
		},
	)
	srv := slicemanapi.New(svc, apiserver.DefaultOptions())

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("slice-manager: shutdown signal received")
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutCancel()
		if err := srv.GracefulShutdown(shutCtx); err != nil {
			log.Printf("slice-manager: graceful shutdown error: %v", err)
		}
	}()

	log.Printf("starting slice-manager on %s (linkdb=%s)", *addr, *linkdbURL)
	if err := srv.ListenAndServe(*addr); err != nil && err.Error() != "http: Server closed" {
		log.Fatalf("slice-manager: server error: %v", err)
	}
}
