// gantry-console is the interactive operator console: it connects to the
// firmware over serial, forwards typed commands, prints the status stream,
// and can republish that stream to websocket dashboards.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"gantry/host/monitor"
	"gantry/host/serial"
)

func main() {
	device := flag.String("device", "/dev/ttyUSB0", "serial device of the gantry firmware")
	baud := flag.Int("baud", 115200, "baud rate")
	listen := flag.String("listen", "", "optional websocket monitor address (e.g. :8080)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	// Blocking reads: the status goroutine owns the port.
	cfg.ReadTimeout = 0
	port, err := serial.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("open serial port")
	}
	link := serial.NewLink(port)
	defer link.Close()
	log.WithFields(log.Fields{"device": *device, "baud": *baud}).Info("connected")

	var hub *monitor.Hub
	if *listen != "" {
		hub = monitor.NewHub()
		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		go func() {
			log.WithField("addr", *listen).Info("monitor listening")
			if err := http.ListenAndServe(*listen, mux); err != nil {
				log.WithError(err).Error("monitor server stopped")
			}
		}()
	}

	// Status stream: serial -> terminal (and dashboards).
	go func() {
		for {
			line, err := link.ReadLine()
			if err != nil {
				log.WithError(err).Fatal("serial link lost")
			}
			if line == "" {
				continue
			}
			fmt.Println(line)
			if hub != nil {
				hub.Publish(line)
			}
		}
	}()

	// Command stream: terminal -> serial.
	stdin := bufio.NewScanner(os.Stdin)
	for stdin.Scan() {
		cmd := strings.TrimSpace(stdin.Text())
		if cmd == "" {
			continue
		}
		if cmd == "quit" || cmd == "exit" {
			return
		}
		log.WithField("cmd", cmd).Debug("send")
		if err := link.WriteLine(cmd); err != nil {
			log.WithError(err).Fatal("write failed")
		}
	}
}
