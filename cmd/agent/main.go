// agent is the per-router SONiC Agent process: command dispatch, telemetry
// sessions, and health heartbeats (spec §4.4).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/agent"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/config"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/kafkaio"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/messages"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/transceiver"
)

func main() {
	popID := flag.String("pop-id", "", "this agent's POP id")
	routerID := flag.String("router-id", "", "this agent's router id; also used as its agent/node id")
	interfaces := flag.String("interfaces", "", "comma-separated interface ids this agent owns")
	flag.Parse()
	if v := os.Getenv("AGENT_POP_ID"); v != "" {
		*popID = v
	}
	if v := os.Getenv("AGENT_ROUTER_ID"); v != "" {
		*routerID = v
	}
	if v := os.Getenv("AGENT_INTERFACES"); v != "" {
		*interfaces = v
	}
	if *popID == "" || *routerID == "" {
		log.Fatal("agent: AGENT_POP_ID and AGENT_ROUTER_ID must be set")
	}
	var ifaceList []string
	for _, iface := range strings.Split(*interfaces, ",") {
		if iface = strings.TrimSpace(iface); iface != "" {
			ifaceList = append(ifaceList, iface)
		}
	}

	cfg := config.Load()
	if cfg.VirtualOperator == "" {
		log.Fatal("agent: VIRTUAL_OPERATOR must be set")
	}
	brokers := strings.Split(cfg.KafkaBroker, ",")
	topics := model.TopicsFor(cfg.VirtualOperator)

	// agentID is the router id: one Agent process per SONiC switch, and the
	// Controller's ack-quorum tracking keys expected acks by endpoint
	// NodeID, so the two must agree.
	agentID := *routerID

	var capability transceiver.Capability
	if cfg.MockHardware {
		capability = transceiver.NewMockTransceiver(ifaceList)
	} else {
		mappings := make(map[string]int, len(ifaceList))
		for i, iface := range ifaceList {
			mappings[iface] = i
		}
		capability = transceiver.NewSonicTransceiver(mappings)
	}

	monitoringProducer := kafkaio.NewProducer(brokers, topics.Monitoring)
	healthProducer := kafkaio.NewProducer(brokers, topics.Health)
	configConsumer := kafkaio.NewConsumer(brokers, topics.Config, "agent-"+agentID)
	defer monitoringProducer.Close()
	defer healthProducer.Close()
	defer configConsumer.Close()

	d := agent.New(agent.Options{
		AgentID:           agentID,
		POPID:             *popID,
		RouterID:          *routerID,
		Interfaces:        ifaceList,
		TelemetryInterval: cfg.TelemetryInterval(),
		Capability:        capability,
		Monitoring:        monitoringProducer,
		Health:            healthProducer,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("agent: shutdown signal received")
		cancel()
	}()

	go d.StartHeartbeat(ctx, cfg.TelemetryInterval()*4)

	log.Printf("starting agent %s at pop=%s router=%s interfaces=%v", agentID, *popID, *routerID, ifaceList)
	for {
		select {
		case <-ctx.Done():
			time.Sleep(200 * time.Millisecond) // let in-flight acks flush before exit
			return
		default:
		}
		msg, err := configConsumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("agent: read config: %v", err)
			continue
		}
		var env messages.CommandEnvelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			log.Printf("agent: malformed command envelope: %v", err)
			continue
		}
		if err := d.HandleCommand(ctx, env); err != nil {
			log.Printf("agent: handle command %s: %v", env.CommandID, err)
		}
	}
}
