package terminal

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/dkeye/Wordbrain/internal/app/session"
	"github.com/dkeye/Wordbrain/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

// Options controls the lobby share link.
type Options struct {
	ServerURL string
	ShareQR   bool
}

// ShareLink is the URL other players open to join code.
func ShareLink(serverURL string, code domain.RoomCode) string {
	u, err := url.Parse(serverURL)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Path = "/"
	u.RawQuery = url.Values{"room": {string(code)}}.Encode()
	u.Fragment = ""
	return u.String()
}

// Render writes v as plain text.
func Render(w io.Writer, v session.View, opts Options) {
	var b strings.Builder
	fmt.Fprintf(&b, "\n== %s ==", strings.ToUpper(string(v.Screen)))
	if v.Room != nil {
		fmt.Fprintf(&b, "  room %s", v.Room.RoomCode)
		if v.Room.Topic != "" {
			fmt.Fprintf(&b, " · %s", v.Room.Topic)
		}
	}
	b.WriteString(connectionLine(v))
	b.WriteByte('\n')

	switch v.Screen {
	case session.ScreenMenu, session.ScreenCreatingOrJoining:
		renderForm(&b, v)
	case session.ScreenLobby:
		renderLobby(&b, v, opts)
	case session.ScreenCountdown:
		fmt.Fprintf(&b, "Starting in %d...\n", v.Countdown)
	case session.ScreenInGame:
		renderGame(&b, v)
	case session.ScreenResults:
		b.WriteString("Final results\n")
		renderLeaderboard(&b, v)
		b.WriteString("again: back to the lobby, menu: leave\n")
	}

	if len(v.Notifications) > 0 {
		b.WriteString("--\n")
		for _, n := range v.Notifications {
			fmt.Fprintf(&b, "%s %s\n", noticeMark(n.Level), n.Message)
		}
	}
	io.WriteString(w, b.String())
}

func connectionLine(v session.View) string {
	switch {
	case v.ConnectionLost:
		return "  [offline]"
	case v.Reconnecting > 0:
		return fmt.Sprintf("  [reconnecting #%d]", v.Reconnecting)
	case v.Room != nil && !v.Connected:
		return "  [connecting]"
	}
	return ""
}

func noticeMark(l domain.NoticeLevel) string {
	switch l {
	case domain.NoticeSuccess:
		return "+"
	case domain.NoticeError:
		return "x"
	case domain.NoticeWarning:
		return "!"
	}
	return "-"
}

func renderForm(b *strings.Builder, v session.View) {
	if v.Busy {
		b.WriteString("Contacting server...\n")
		return
	}
	if v.Form.Error != "" {
		fmt.Fprintf(b, "error: %s\n", v.Form.Error)
	}
	b.WriteString("create <name> <topic> [levels] [seconds]  |  join <name> <code>\n")
}

func renderLobby(b *strings.Builder, v session.View, opts Options) {
	if v.MaxPlayers > 0 {
		fmt.Fprintf(b, "Players %d/%d\n", v.PlayerCount, v.MaxPlayers)
	} else {
		fmt.Fprintf(b, "Players %d\n", v.PlayerCount)
	}
	for _, p := range v.Roster {
		mark := "  "
		if p.IsHost {
			mark = "♛ "
		}
		line := mark + p.Name
		if v.Player != nil && p.ID == v.Player.ID {
			line += " (You)"
		}
		if p.Ready {
			line += "  ✓ ready"
		}
		fmt.Fprintf(b, "  %s\n", line)
	}
	if v.Ready {
		b.WriteString("You are ready. ")
	} else {
		b.WriteString("ready: mark yourself ready. ")
	}
	if v.StartVisible {
		b.WriteString("start: begin the game.")
	}
	b.WriteByte('\n')

	if v.Room == nil || !opts.ShareQR {
		return
	}
	link := ShareLink(opts.ServerURL, v.Room.RoomCode)
	if link == "" {
		return
	}
	fmt.Fprintf(b, "Share: %s\n", link)
	q, err := qrcode.New(link, qrcode.Low)
	if err != nil {
		log.Warn().Err(err).Str("module", "adapters.terminal").Msg("share qr")
		return
	}
	b.WriteString(q.ToSmallString(false))
}

func renderGame(b *strings.Builder, v session.View) {
	total := 0
	if v.Room != nil {
		total = v.Room.LevelCount
	}
	fmt.Fprintf(b, "Level %d/%d   Score %d   Time %s\n", v.Level, total, v.Score, timerText(v))

	if v.Frozen {
		b.WriteString("*** FROZEN ***\n")
	}
	if g := v.Grid; g != nil {
		b.WriteString("    ")
		for c := 0; c < g.Cols; c++ {
			fmt.Fprintf(b, "%2d ", c)
		}
		b.WriteByte('\n')
		for r := 0; r < g.Rows; r++ {
			fmt.Fprintf(b, "%2d  ", r)
			for c := 0; c < g.Cols; c++ {
				b.WriteString(cellText(g, r, c))
			}
			b.WriteByte('\n')
		}
		fmt.Fprintf(b, "Word: %s\n", g.Word)
	}

	for i, s := range v.Slots {
		marker := " "
		if i == v.ActiveSlot {
			marker = ">"
		}
		word := strings.Repeat("_ ", s.Length)
		if s.Completed {
			word = s.Word
		}
		fmt.Fprintf(b, "%s %d letters: %s\n", marker, s.Length, strings.TrimSpace(word))
	}

	if len(v.Boosters) > 0 {
		parts := make([]string, 0, len(v.Boosters))
		for _, bv := range v.Boosters {
			parts = append(parts, fmt.Sprintf("%s(%s) %d", bv.Label, bv.Kind, bv.Available-bv.Used))
		}
		fmt.Fprintf(b, "Boosters: %s\n", strings.Join(parts, "  "))
	}
	renderLeaderboard(b, v)
}

func cellText(g *session.GridView, r, c int) string {
	if r >= len(g.Mask) || c >= len(g.Mask[r]) || !g.Mask[r][c] {
		return "   "
	}
	ch := " "
	if r < len(g.Cells) && c < len(g.Cells[r]) && g.Cells[r][c] != "" {
		ch = g.Cells[r][c]
	}
	if g.Selected(r, c) {
		return "[" + ch + "]"
	}
	return " " + ch + " "
}

func timerText(v session.View) string {
	t := fmt.Sprintf("%d:%02d", v.Remaining/60, v.Remaining%60)
	switch v.TimerLevel {
	case session.TimerDanger:
		return t + " !!"
	case session.TimerWarning:
		return t + " !"
	}
	return t
}

func renderLeaderboard(b *strings.Builder, v session.View) {
	for _, e := range v.Leaderboard {
		you := ""
		if v.Player != nil && e.PlayerID == v.Player.ID {
			you = " (You)"
		}
		fmt.Fprintf(b, "  #%d %s%s  %d\n", e.Rank, e.Name, you, e.Score)
	}
}
