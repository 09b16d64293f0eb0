// Command timerctl is an interactive shell for a timerhal board. It talks
// to real hardware over USB serial, or with -sim to an in-process board
// backed by simulated timer registers.
package main

import (
	"flag"
	"net"
	"os"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"timerhal/board"
	"timerhal/config"
	"timerhal/console"
	"timerhal/host/link"
	"timerhal/sim"
)

var (
	device     = flag.String("device", "/dev/ttyACM0", "Serial device path")
	simulate   = flag.Bool("sim", false, "Run against an in-process simulated board")
	configPath = flag.String("config", "", "Board config JSON for -sim (default board if empty)")
	evalOnly   = flag.Bool("e", false, "Run the command given as arguments and exit")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	var (
		client *link.Client
		regs   *sim.Registry
		err    error
	)
	if *simulate {
		client, regs, err = startSim(*configPath)
	} else {
		client, err = link.Open(*device)
	}
	if err != nil {
		glog.Errorf("connect failed: %v", err)
		glog.Flush()
		os.Exit(1)
	}
	defer client.Close()

	s := newShell(client, regs)
	if _, err := client.Identify(); err != nil {
		glog.Warningf("identify failed, using built-in message table: %v", err)
	}

	if args := flag.Args(); len(args) > 0 || *evalOnly {
		if err := s.Process(args...); err != nil {
			glog.Errorf("%v", err)
			glog.Flush()
			os.Exit(1)
		}
		return
	}
	s.Run()
}

// startSim builds and starts a board on simulated registers and serves its
// console over an in-memory pipe
func startSim(path string) (*link.Client, *sim.Registry, error) {
	cfg := config.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return nil, nil, err
		}
	}

	regs := sim.NewRegistry()
	b, err := board.Build(cfg, regs.Registers)
	if err != nil {
		return nil, nil, err
	}
	if err := b.Start(); err != nil {
		return nil, nil, err
	}

	host, dev := net.Pipe()
	go func() {
		if err := console.New(b).Serve(dev); err != nil {
			glog.V(1).Infof("simulated console stopped: %v", err)
		}
	}()
	glog.Infof("simulated board %q ready", b.Name)
	return link.New(host), regs, nil
}

func newShell(client *link.Client, regs *sim.Registry) *ishell.Shell {
	s := ishell.New()
	s.Set(clientKey, client)
	s.SetPrompt("timerhal > ")
	for _, cmd := range commands {
		s.AddCmd(cmd)
	}
	if regs != nil {
		s.Set(simKey, regs)
		s.AddCmd(&simStepCmd)
		s.AddCmd(&simFaultCmd)
		s.SetPrompt("timerhal[sim] > ")
	}
	return s
}
