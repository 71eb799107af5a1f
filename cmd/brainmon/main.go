package main

import (
	"bytes"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/neurobridge/pkg/sensory"
	"github.com/robotalks/neurobridge/pkg/transport/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/feagi/"
)

func init() {
	if val := os.Getenv("NEUROBRIDGE_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	q.Sub("+/"+mqtt.TopicMeta, func(topic string, payload []byte) {
		if len(payload) == 0 {
			log.Printf("%s: offline", topic)
			return
		}
		log.Printf("%s: %s", topic, strings.TrimSpace(string(payload)))
	})
	q.Sub("+/"+mqtt.TopicSensory, func(topic string, payload []byte) {
		if bytes.HasPrefix(payload, []byte("{")) {
			pkt, err := sensory.DecodePacket(payload)
			if err != nil {
				log.Printf("%s: bad packet: %v", topic, err)
				return
			}
			log.Printf("%s: #%d %v", topic, pkt.Frame, pkt.Data)
			return
		}
		frame, err := sensory.DecodeProto(payload)
		if err != nil {
			log.Printf("%s: decode error: %v", topic, err)
			return
		}
		log.Printf("%s: #%d %s", topic, frame.Frame, frame.String())
	})
	<-(chan struct{})(nil)
}
