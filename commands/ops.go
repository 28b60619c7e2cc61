package commands

import (
	"errors"
	"strconv"
	"strings"

	"github.com/powledger/powledger/network"
)

type Operation int

const (
	DEFAULT = iota
	// Mine one block from the pending pool.
	MINE
	// Restart mining when a new head replaces the one we mine on.
	RESTART
	// Stop an in-flight mining search completely.
	STOP
	// Run longest-chain consensus against all known peers.
	SYNC
	// Add a new peer to this full node.
	ADD_PEER
	// List all peers.
	LIST_PEER
	// Print the pending pool.
	PENDING
	// Render the blockchain.
	SHOW
)

// A command contains a operation and many arguments.
type Command struct {
	Op   Operation
	Args []string
}

func (c Command) IsValid() bool {
	switch c.Op {
	case MINE, RESTART, STOP, SYNC, LIST_PEER, PENDING:
		return len(c.Args) == 0
	case ADD_PEER:
		if len(c.Args) != 1 {
			return false
		}
		_, err := network.NormalizePeerAddress(c.Args[0])
		return err == nil
	case SHOW:
		if len(c.Args) != 1 {
			return false
		}
		// depth must be a positive number.
		d, err := strconv.Atoi(c.Args[0])
		return err == nil && d >= 1
	default:
		return false
	}
}

// CreateCommand parses one line of console input.
func CreateCommand(s string) (Command, error) {
	ss := strings.Fields(s)
	if len(ss) == 0 {
		return Command{}, errors.New("command is empty")
	}
	cmd := Command{}
	switch ss[0] {
	case "mine":
		cmd.Op = MINE
	case "restart":
		cmd.Op = RESTART
	case "stop":
		cmd.Op = STOP
	case "sync":
		cmd.Op = SYNC
	case "add_peer":
		cmd.Op = ADD_PEER
	case "list_peer":
		cmd.Op = LIST_PEER
	case "pending":
		cmd.Op = PENDING
	case "show":
		cmd.Op = SHOW
	}
	cmd.Args = ss[1:]
	if !cmd.IsValid() {
		return Command{}, errors.New("invalid command")
	}
	return cmd, nil
}

// Create a brand new command with default operation.
func NewDefaultCommand() Command {
	return Command{
		Op: DEFAULT,
	}
}

func (c Command) IsDefault() bool {
	return c.Op == DEFAULT
}
