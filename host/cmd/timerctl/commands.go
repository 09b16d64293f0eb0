package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"timerhal/core"
	"timerhal/host/link"
	"timerhal/motor"
	"timerhal/protocol"
	"timerhal/sim"
)

const (
	clientKey = "$client"
	simKey    = "$sim"
)

var commands = []*ishell.Cmd{
	&dictCmd,
	&rawCmd,
	&eventsCmd,
	&pwmInitCmd,
	&pwmStartCmd,
	&pwmStopCmd,
	&pwmDutyCmd,
	&pwmQueryCmd,
	&encInitCmd,
	&encStartCmd,
	&encStopCmd,
	&encGetCmd,
	&encSetCmd,
	&motorInitCmd,
	&motorDriveCmd,
}

func clientFrom(c *ishell.Context) *link.Client {
	return c.Get(clientKey).(*link.Client)
}

// intArgs parses every shell argument as a signed integer
func intArgs(c *ishell.Context, want int) ([]int32, error) {
	if len(c.Args) != want {
		return nil, fmt.Errorf("expected %d arguments, got %d", want, len(c.Args))
	}
	return parseInts(c.Args)
}

func parseInts(args []string) ([]int32, error) {
	values := make([]int32, len(args))
	for i, arg := range args {
		v, err := strconv.ParseInt(arg, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		values[i] = int32(v)
	}
	return values, nil
}

// call runs one request and prints its result
func call(c *ishell.Context, id protocol.MessageID, nargs int) {
	args, err := intArgs(c, nargs)
	if err != nil {
		c.Err(err)
		return
	}
	res, err := clientFrom(c).Call(id, args...)
	if err != nil {
		c.Err(err)
		return
	}
	printResult(c, res)
}

func printResult(c *ishell.Context, res protocol.Result) {
	if len(res.Data) > 0 {
		c.Printf("OK value=%d value2=%d data=%q\n", res.Value, res.Value2, res.Data)
		return
	}
	c.Printf("OK value=%d value2=%d\n", res.Value, res.Value2)
}

func requestCmd(name string, aliases []string, help string, id protocol.MessageID, nargs int) ishell.Cmd {
	return ishell.Cmd{
		Name:    name,
		Aliases: aliases,
		Help:    help,
		Func: func(c *ishell.Context) {
			call(c, id, nargs)
		},
	}
}

var (
	dictCmd = ishell.Cmd{
		Name: "dict",
		Help: "download and print the board's message dictionary",
		Func: func(c *ishell.Context) {
			entries, err := clientFrom(c).Identify()
			if err != nil {
				c.Err(err)
				return
			}
			for _, e := range entries {
				c.Printf("[%2d] %s %s\n", e.ID, e.Name, e.Format)
			}
		},
	}

	rawCmd = ishell.Cmd{
		Name: "raw",
		Help: "NAME [ARGS...] send any message by dictionary name",
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("message name expected"))
				return
			}
			args, err := parseInts(c.Args[1:])
			if err != nil {
				c.Err(err)
				return
			}
			res, err := clientFrom(c).CallByName(c.Args[0], args...)
			if err != nil {
				c.Err(err)
				return
			}
			printResult(c, res)
		},
	}

	eventsCmd = ishell.Cmd{
		Name: "events",
		Help: "dump the board's event ring",
		Func: func(c *ishell.Context) {
			events, err := clientFrom(c).Events()
			if err != nil {
				c.Err(err)
				return
			}
			for _, e := range events {
				c.Println(e.String())
			}
			c.Printf("%d events\n", len(events))
		},
	}

	pwmInitCmd   = requestCmd("pwm.init", []string{"pi"}, "OID FREQ_HZ DUTY (duty in 0.1%)", protocol.MsgPWMInit, 3)
	pwmStartCmd  = requestCmd("pwm.start", nil, "OID", protocol.MsgPWMStart, 1)
	pwmStopCmd   = requestCmd("pwm.stop", nil, "OID", protocol.MsgPWMStop, 1)
	pwmDutyCmd   = requestCmd("pwm.duty", []string{"pd"}, "OID DUTY (duty in 0.1%)", protocol.MsgPWMSetDuty, 2)
	encInitCmd   = requestCmd("enc.init", []string{"ei"}, "OID MAX_COUNT FILTER", protocol.MsgEncoderInit, 3)
	encStartCmd  = requestCmd("enc.start", nil, "OID", protocol.MsgEncoderStart, 1)
	encStopCmd   = requestCmd("enc.stop", nil, "OID", protocol.MsgEncoderStop, 1)
	encSetCmd    = requestCmd("enc.set", nil, "OID COUNT", protocol.MsgEncoderSet, 2)
	motorInitCmd = requestCmd("motor.init", []string{"mi"}, "OID PWM_FREQ_HZ", protocol.MsgMotorInit, 2)

	pwmQueryCmd = ishell.Cmd{
		Name:    "pwm.query",
		Aliases: []string{"pq"},
		Help:    "OID",
		Func: func(c *ishell.Context) {
			args, err := intArgs(c, 1)
			if err != nil {
				c.Err(err)
				return
			}
			duty, hz, state, err := clientFrom(c).PWMStatus(uint8(args[0]))
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("%s duty=%d.%d%% freq=%dHz\n", state, duty/10, duty%10, hz)
		},
	}

	encGetCmd = ishell.Cmd{
		Name:    "enc.get",
		Aliases: []string{"eg"},
		Help:    "OID",
		Func: func(c *ishell.Context) {
			args, err := intArgs(c, 1)
			if err != nil {
				c.Err(err)
				return
			}
			count, maxCount, err := clientFrom(c).EncoderCount(uint8(args[0]))
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("count=%d max=%d\n", count, maxCount)
		},
	}

	motorDriveCmd = ishell.Cmd{
		Name:    "motor.drive",
		Aliases: []string{"md"},
		Help:    "OID forward|reverse|stop|coast STRENGTH (0.1%)",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 3 {
				c.Err(fmt.Errorf("expected 3 arguments, got %d", len(c.Args)))
				return
			}
			dir, err := parseDirection(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			args, err := parseInts([]string{c.Args[0], c.Args[2]})
			if err != nil {
				c.Err(err)
				return
			}
			res, err := clientFrom(c).Call(protocol.MsgMotorDrive, args[0], int32(dir), args[1])
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("%s in1=%d in2=%d\n", dir, res.Value, res.Value2)
		},
	}

	simStepCmd = ishell.Cmd{
		Name: "sim.step",
		Help: "BLOCK DELTA turn a simulated encoder by DELTA counts",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(fmt.Errorf("expected BLOCK DELTA"))
				return
			}
			block, ok := core.BlockByName(strings.ToUpper(c.Args[0]))
			if !ok {
				c.Err(fmt.Errorf("unknown block %q", c.Args[0]))
				return
			}
			delta, err := parseInts(c.Args[1:])
			if err != nil {
				c.Err(err)
				return
			}
			b := c.Get(simKey).(*sim.Registry).Block(block)
			b.Step(delta[0])
			c.Printf("%s counter=%d\n", block, b.Counter())
		},
	}

	simFaultCmd = ishell.Cmd{
		Name: "sim.fault",
		Help: "BLOCK [OP] arm a register fault on OP, or clear all faults",
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("expected BLOCK [OP]"))
				return
			}
			block, ok := core.BlockByName(strings.ToUpper(c.Args[0]))
			if !ok {
				c.Err(fmt.Errorf("unknown block %q", c.Args[0]))
				return
			}
			b := c.Get(simKey).(*sim.Registry).Block(block)
			if len(c.Args) == 1 {
				b.ClearFaults()
				c.Println("faults cleared")
				return
			}
			b.FailOn(c.Args[1], nil)
			c.Printf("%s %s armed\n", block, c.Args[1])
		},
	}
)

func parseDirection(s string) (motor.Direction, error) {
	switch strings.ToLower(s) {
	case "forward", "fwd", "f":
		return motor.DirectionForward, nil
	case "reverse", "rev", "r":
		return motor.DirectionReverse, nil
	case "stop", "brake", "s":
		return motor.DirectionStopped, nil
	case "coast", "c":
		return motor.DirectionCoast, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}
