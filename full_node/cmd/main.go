package main

import (
	"bufio"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/powledger/powledger/commands"
	"github.com/powledger/powledger/config"
	"github.com/powledger/powledger/full_node"
	"github.com/powledger/powledger/logx"
	"github.com/powledger/powledger/visualize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var (
	port         string
	configPath   string
	registerWith string
	peerList     string
	console      bool
)

var rootCmd = &cobra.Command{
	Use:   "powledger-node",
	Short: "Run a powledger full node",
	Long: "Runs one node of the replicated data ledger: serves the HTTP surface, " +
		"mines pending entries on demand and keeps consensus with its peers.",
	Run: run,
}

func init() {
	rootCmd.Flags().StringVar(&port, "port", "8000", "port to listen on for peers and applications")
	rootCmd.Flags().StringVar(&configPath, "config_path", "full_node/cmd/config.yaml", "path to full node config")
	rootCmd.Flags().StringVar(&registerWith, "register_with", "", "address of an existing node to register with and sync from")
	rootCmd.Flags().StringVar(&peerList, "peers", "", "comma separated peer addresses")
	rootCmd.Flags().BoolVar(&console, "console", false, "run the interactive console UI instead of the plain prompt")
}

func ParseAppConfig(path string) config.AppConfig {
	c := config.AppConfig{}
	yamlFile, err := ioutil.ReadFile(path)
	if err != nil {
		log.Fatal("yamlFile. get err: ", err.Error())
	}
	err = yaml.Unmarshal(yamlFile, &c)
	if err != nil {
		log.Fatal("Unmarshal: ", err)
	}
	return c
}

// ParseCommand reads console input and turns it into commands.
func ParseCommand(cmd chan commands.Command) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		text, _ := reader.ReadString('\n')
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		c, err := commands.CreateCommand(text)
		if err != nil {
			log.Println(err)
			continue
		}
		cmd <- c
	}
}

// HandleCommand drives the node from console commands. It owns the mining
// control channel: RESTART and STOP are relayed to an in-flight search, a
// RESTART after an interrupted search mines again on the new head.
func HandleCommand(cmd chan commands.Command, server *full_node.FullNodeServer) {
	// A separate control is needed to make sure cmd is non-blocking
	// when we just want to restart an in-flight search.
	ctl := make(chan commands.Command, 1)
	isMining := false
	for {
		c := <-cmd
		switch c.Op {
		case commands.MINE:
			if isMining {
				logx.Warn("cmd", "mining is already in progress")
				continue
			}
			isMining = true
			go func() {
				defer func() { isMining = false }()
				for {
					b, res, err := server.MineAndAnnounce(ctl)
					if err != nil {
						switch res.Op {
						case commands.RESTART:
							// Head changed under us, mine the same pool
							// against the new head.
							continue
						case commands.STOP:
							return
						default:
							logx.Error("mine", err.Error())
							return
						}
					}
					if b == nil {
						logx.Info("mine", "no data to mine")
					} else {
						logx.Info("mine", "block #", b.Index, " is mined")
					}
					return
				}
			}()
		case commands.RESTART, commands.STOP:
			if !isMining {
				logx.Warn("cmd", "no running mining task to restart or stop")
				continue
			}
			go func() {
				// Relay the signal in a separate goroutine because we don't
				// want to block HandleCommand in any situation.
				ctl <- c
			}()
		case commands.SYNC:
			if server.Consensus() {
				logx.Info("sync", "local chain replaced, new length ", server.Node().Length())
			} else {
				logx.Info("sync", "local chain is authoritative")
			}
		case commands.ADD_PEER:
			if err := server.AddPeer(c.Args[0]); err != nil {
				logx.Error("cmd", err.Error())
			}
		case commands.LIST_PEER:
			logx.Info("cmd", "peers: ", strings.Join(server.GetAllPeers(), ", "))
		case commands.PENDING:
			logx.Info("cmd", fmt.Sprintf("%v", server.Node().PendingSnapshot()))
		case commands.SHOW:
			depth, err := strconv.Atoi(c.Args[0])
			if err != nil {
				logx.Error("cmd", c.Args[0], " is not a valid depth")
				continue
			}
			if err := visualize.Render(server.Node().ChainSnapshot(), depth, server.Node().UUID()); err != nil {
				logx.Error("cmd", err.Error())
			}
		default:
			logx.Warn("cmd", "unrecognized command")
		}
	}
}

func run(cobraCmd *cobra.Command, args []string) {
	cfg := ParseAppConfig(configPath)
	logx.Init(cfg.LOG_FILE)

	// A command channel that non-blockingly takes external or internal
	// command and handles it correspondingly.
	cmd := make(chan commands.Command)

	selfAddr := "http://127.0.0.1:" + port
	server := full_node.NewFullNodeServer(cfg, selfAddr, cmd)

	go func() {
		logx.Info("node", "starting to serve at port ", port)
		if err := http.ListenAndServe(":"+port, server.Router()); err != nil {
			log.Fatalf("failed to listen: %v", err)
		}
	}()

	for _, p := range strings.Split(peerList, ",") {
		if p = strings.TrimSpace(p); p != "" {
			if err := server.AddPeer(p); err != nil {
				logx.Warn("node", "skipping bad peer address ", p)
			}
		}
	}
	if registerWith != "" {
		if err := server.RegisterWith(registerWith); err != nil {
			log.Fatalf("failed to register with %s: %v", registerWith, err)
		}
	}

	go HandleCommand(cmd, server)

	if console {
		g, err := CreateGui(cmd)
		if err != nil {
			log.Fatal(err)
		}
		defer g.Close()
		if err := g.MainLoop(); err != nil && err != gocuiQuit {
			log.Fatal(err)
		}
		return
	}
	ParseCommand(cmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
