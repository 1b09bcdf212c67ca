package terminal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dkeye/Wordbrain/internal/app/session"
	"github.com/dkeye/Wordbrain/internal/domain"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

type Action int

const (
	ActionPost Action = iota
	ActionTopics
	ActionState
	ActionHelp
	ActionQuit
)

// Command is one parsed input line. Msg is set only for ActionPost.
type Command struct {
	Action Action
	Msg    session.Msg
}

const Help = `commands:
  create <name> <topic> [levels] [seconds]   create a room
  join <name> <code>                         join a room
  topics                                     list topics
  ready | start | leave | menu | again | refresh
  tap <row> <col>                            select a cell (0-based)
  clear | submit                             clear or submit the selection
  boost <KIND>                               use a booster (e.g. FREEZE)
  state | help | quit`

var simple = map[string]session.Msg{
	"ready":   session.ToggleReady{},
	"start":   session.StartGame{},
	"leave":   session.LeaveRoom{},
	"menu":    session.ReturnToMenu{},
	"again":   session.PlayAgain{},
	"refresh": session.RefreshRoom{},
	"clear":   session.ClearSelection{},
	"submit":  session.SubmitWord{},
}

func usage(format string) error {
	return fmt.Errorf("%w: %s", ErrUsage, format)
}

func post(m session.Msg) (Command, error) {
	return Command{Action: ActionPost, Msg: m}, nil
}

// Parse turns one line of input into a Command. Blank lines parse to help.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{Action: ActionHelp}, nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	if m, ok := simple[name]; ok {
		return post(m)
	}

	switch name {
	case "create":
		if len(args) < 2 || len(args) > 4 {
			return Command{}, usage("create <name> <topic> [levels] [seconds]")
		}
		m := session.CreateRoom{PlayerName: args[0], Topic: args[1]}
		ints, err := atoiAll(args[2:])
		if err != nil {
			return Command{}, usage("create <name> <topic> [levels] [seconds]")
		}
		if len(ints) > 0 {
			m.LevelCount = ints[0]
		}
		if len(ints) > 1 {
			m.LevelDuration = ints[1]
		}
		return post(m)
	case "join":
		if len(args) != 2 {
			return Command{}, usage("join <name> <code>")
		}
		return post(session.JoinRoom{PlayerName: args[0], RoomCode: args[1]})
	case "tap":
		ints, err := atoiAll(args)
		if err != nil || len(ints) != 2 {
			return Command{}, usage("tap <row> <col>")
		}
		return post(session.TapCell{Row: ints[0], Col: ints[1]})
	case "boost":
		if len(args) != 1 {
			return Command{}, usage("boost <KIND>")
		}
		return post(session.UseBooster{Kind: domain.BoosterKind(strings.ToUpper(args[0]))})
	case "topics":
		return Command{Action: ActionTopics}, nil
	case "state":
		return Command{Action: ActionState}, nil
	case "help", "?":
		return Command{Action: ActionHelp}, nil
	case "quit", "exit":
		return Command{Action: ActionQuit}, nil
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

func atoiAll(args []string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
