package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/neurobridge/pkg/l0/comm"
	"github.com/robotalks/neurobridge/pkg/sensory"
	"github.com/robotalks/neurobridge/pkg/transport/serial"
)

// ReplyTimeout bounds waiting for a reply from the device.
const ReplyTimeout = time.Second

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *Config
	Conn   *Conn
}

// Conn is a running client connected to a device.
type Conn struct {
	Ctx    context.Context
	Cancel func()
	Target string
	Client *comm.Client
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
		&PortsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(comm.ErrNotConnected)
			return
		}
		fn(c)
	}
}

// DoCommand sends a command. For GetCapabilities, it waits for the
// reply and prints it.
func DoCommand(c *ishell.Context, cmd comm.Command) error {
	s := ShellFrom(c)
	if s.Conn == nil {
		c.Err(comm.ErrNotConnected)
		return comm.ErrNotConnected
	}
	if _, ok := cmd.(comm.GetCapabilities); !ok {
		if err := s.Conn.Client.Send(cmd); err != nil {
			c.Err(err)
			return err
		}
		if !s.OutputJSON {
			c.Println("OK")
		}
		return nil
	}
	req := s.Conn.Client.Do(cmd)
	select {
	case res := <-req.ResultChan():
		if res.Err != nil {
			c.Err(res.Err)
			return res.Err
		}
		if s.OutputJSON {
			c.Println(string(res.Data))
			return nil
		}
		caps, err := sensory.DecodeCapabilities(res.Data)
		if err != nil {
			c.Err(err)
			return err
		}
		c.Println(FormatCapabilities(caps))
	case <-time.After(ReplyTimeout):
		c.Err(fmt.Errorf("Command timeout"))
		return context.DeadlineExceeded
	}
	return nil
}

// FormatCapabilities prints capabilities into friendly string for display.
func FormatCapabilities(caps *sensory.Capabilities) string {
	return fmt.Sprintf("sensors: accel=%v mag=%v temp=%v buttons=%v\n"+
		"gpio: digital_in=%d digital_out=%d analog=%d pwm=%d\n"+
		"display: matrix=%v",
		caps.Sensors.Accel, caps.Sensors.Mag, caps.Sensors.Temp, caps.Sensors.Buttons,
		caps.GPIO.DigitalInput, caps.GPIO.DigitalOutput, caps.GPIO.Analog, caps.GPIO.Pwm,
		caps.Display.Matrix)
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect connects the device at target.
func (s *Shell) Connect(target string) error {
	rw, err := Dial(target)
	if err != nil {
		return err
	}
	conn := &Conn{Target: target, Client: comm.NewClient(rw)}
	conn.Ctx, conn.Cancel = context.WithCancel(context.Background())
	if s.Conn != nil {
		s.Conn.Cancel()
	}
	s.Conn = conn
	go func() {
		err := conn.Client.Run(conn.Ctx)
		if err != nil && err != context.Canceled {
			s.Shell.Printf("%s disconnected: %v\n", target, err)
		}
	}()
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", target))
	return nil
}

// Disconnect disconnects current device.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Cancel()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Target != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Target)
		}
		if err := s.Connect(s.Config.Target); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Target, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// ConnectCmd connects a device.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[URL]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			target := s.Config.Target
			if len(c.Args) > 0 {
				target = c.Args[0]
			}
			if err := s.Connect(target); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current device.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ports, err := serial.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if ShellFrom(c).OutputJSON {
				if ports == nil {
					ports = []string{}
				}
				out, err := json.Marshal(ports)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, port := range ports {
				c.Println("serial://" + port)
			}
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
