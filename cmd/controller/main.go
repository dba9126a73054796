// controller is the per-vOp Controller server: path computation, the
// connection lifecycle state machine, Kafka command dispatch, and the QoT
// closed loop (spec §4.3).
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
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/ctrl"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/ctrlapi"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/kafkaio"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/linkdbclient"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/qot"
)

func main() {
	addr := flag.String("addr", ":8200", "listen address")
	linkdbURL := flag.String("linkdb-url", "http://localhost:8000", "LinkDB base URL")
	flag.Parse()
	if v := os.Getenv("CONTROLLER_ADDR"); v != "" {
		*addr = v
	}
	if v := os.Getenv("LINKDB_URL"); v != "" {
		*linkdbURL = v
	}

	cfg := config.Load()
	if cfg.VirtualOperator == "" {
		log.Fatal("controller: VIRTUAL_OPERATOR must be set")
	}
	brokers := strings.Split(cfg.KafkaBroker, ",")
	topics := model.TopicsFor(cfg.VirtualOperator)

	producer := kafkaio.NewProducer(brokers, topics.Config)
	monitoringConsumer := kafkaio.NewConsumer(brokers, topics.Monitoring, "controller-"+cfg.VirtualOperator)
	healthConsumer := kafkaio.NewConsumer(brokers, topics.Health, "controller-"+cfg.VirtualOperator)
	defer producer.Close()
	defer monitoringConsumer.Close()
	defer healthConsumer.Close()

	c := ctrl.New(linkdbclient.New(*linkdbURL), producer, ctrl.Options{
		VOpID:          cfg.VirtualOperator,
		CommandTimeout: cfg.CommandTimeout(),
		QoT: qot.Options{
			OSNRThresholdDB:    cfg.OSNRThresholdDB,
			BERThreshold:       cfg.BERThreshold,
			PersistencySamples: cfg.QoTSamples,
			Cooldown:           cfg.QoTCooldown(),
			TxStepDB:           cfg.TxStepDB,
			TxMinDBm:           cfg.TxMinDBm,
			TxMaxDBm:           cfg.TxMaxDBm,
			AdjustMode:         cfg.AdjustMode,
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go c.Run(ctx, monitoringConsumer, healthConsumer)

	srv := ctrlapi.New(c, apiserver.DefaultOptions())

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("controller: shutdown signal received")
		cancel()
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutCancel()
		if err := srv.GracefulShutdown(shutCtx); err != nil {
			log.Printf("controller: graceful shutdown error: %v", err)
		}
	}()

	log.Printf("starting controller for vop %s on %s (linkdb=%s)", cfg.VirtualOperator, *addr, *linkdbURL)
	if err := srv.ListenAndServe(*addr); err != nil && err.Error() != "http: Server closed" {
		log.Fatalf("controller: server error: %v", err)
	}
}
