package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"notes-server/internal/client"
	"notes-server/internal/domain"
)

// readPassword is swapped out in tests.
var readPassword = term.ReadPassword

var errNotLoggedIn = errors.New("not logged in, run `notesctl login` first")

type app struct {
	api       *client.Client
	log       *logrus.Logger
	tokenFile string
	out       io.Writer
	in        *os.File
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "list":
		return a.list(ctx, args)
	case "add":
		return a.add(ctx, args)
	case "fav":
		return a.fav(ctx, args)
	case "rm":
		return a.rm(ctx, args)
	case "stats":
		return a.stats(ctx)
	case "watch":
		return a.watch(ctx)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) promptPassword() (string, error) {
	fmt.Fprint(a.out, "Password: ")
	pw, err := readPassword(int(a.in.Fd()))
	fmt.Fprintln(a.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	username := fs.String("u", "", "username")
	email := fs.String("e", "", "email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	password, err := a.promptPassword()
	if err != nil {
		return err
	}

	resp, err := a.api.Register(ctx, domain.RegisterRequest{Username: *username, Email: *email, Password: password})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (%s)\n", resp.Username, resp.UserID)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("u", "", "username")
	if err := fs.Parse(args); err != nil {
		return err
	}

	password, err := a.promptPassword()
	if err != nil {
		return err
	}

	resp, err := a.api.Login(ctx, domain.LoginRequest{Username: *username, Password: password})
	if err != nil {
		return err
	}

	if err := os.WriteFile(a.tokenFile, []byte(resp.Token), 0o600); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	fmt.Fprintf(a.out, "Logged in as %s\n", resp.Username)
	return nil
}

// mirror restores the saved token and loads the current notes.
func (a *app) mirror(ctx context.Context) (*client.Mirror, error) {
	token, err := os.ReadFile(a.tokenFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errNotLoggedIn
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	a.api.SetToken(strings.TrimSpace(string(token)))

	m := client.NewMirror(a.api, a.log)
	if err := m.Load(ctx); err != nil {
		if client.StatusCode(err) == http.StatusUnauthorized {
			return nil, errNotLoggedIn
		}
		return nil, err
	}
	return m, nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	search := fs.String("search", "", "filter by text in title, content or tags")
	favorites := fs.Bool("favorites", false, "only favorites")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, err := a.mirror(ctx)
	if err != nil {
		return err
	}

	m.SetSearch(*search)
	m.SetFavoritesOnly(*favorites)
	a.printNotes(m.FilteredView())
	return nil
}

func (a *app) printNotes(notes []*domain.Note) {
	if len(notes) == 0 {
		fmt.Fprintln(a.out, "No notes")
		return
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFAV\tTITLE\tTAGS\tUPDATED")
	for _, n := range notes {
		fav := ""
		if n.IsFavorite {
			fav = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", n.ID, fav, n.Title, strings.Join(n.Tags, ","), n.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	title := fs.String("title", "", "note title")
	content := fs.String("content", "", "note content, read from stdin when empty")
	tags := fs.String("tags", "", "comma separated tags")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *content == "" && !term.IsTerminal(int(a.in.Fd())) {
		data, err := io.ReadAll(bufio.NewReader(a.in))
		if err != nil {
			return fmt.Errorf("failed to read content: %w", err)
		}
		*content = string(data)
	}

	m, err := a.mirror(ctx)
	if err != nil {
		return err
	}

	note, err := m.Create(ctx, domain.CreateNoteRequest{Title: *title, Content: *content, Tags: splitTags(*tags)})
	if err != nil {
		return err
	}
	m.Wait()

	fmt.Fprintf(a.out, "Created %s\n", note.ID)
	return nil
}

func splitTags(s string) domain.TagList {
	tags := domain.TagList{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (a *app) fav(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: notesctl fav <id>")
	}

	m, err := a.mirror(ctx)
	if err != nil {
		return err
	}

	note, err := m.ToggleFavorite(ctx, args[0])
	if err != nil {
		return err
	}
	m.Wait()

	if note.IsFavorite {
		fmt.Fprintf(a.out, "Added %s to favorites\n", note.ID)
	} else {
		fmt.Fprintf(a.out, "Removed %s from favorites\n", note.ID)
	}
	return nil
}

func (a *app) rm(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: notesctl rm <id>")
	}

	m, err := a.mirror(ctx)
	if err != nil {
		return err
	}

	if err := m.Delete(ctx, args[0]); err != nil {
		return err
	}
	m.Wait()

	fmt.Fprintf(a.out, "Deleted %s\n", args[0])
	return nil
}

func (a *app) stats(ctx context.Context) error {
	m, err := a.mirror(ctx)
	if err != nil {
		return err
	}

	s := m.Stats()
	fmt.Fprintf(a.out, "Total:        %d\n", s.Total)
	fmt.Fprintf(a.out, "Favorites:    %d\n", s.Favorites)
	fmt.Fprintf(a.out, "Tags:         %s\n", strings.Join(s.Tags, ", "))
	fmt.Fprintf(a.out, "Last created: %s\n", orDash(s.LastCreated))
	fmt.Fprintf(a.out, "Last updated: %s\n", orDash(s.LastUpdated))

	months := make([]string, 0, len(s.ByMonth))
	for month := range s.ByMonth {
		months = append(months, month)
	}
	sort.Strings(months)
	for _, month := range months {
		fmt.Fprintf(a.out, "  %-20s %d\n", month, s.ByMonth[month])
	}
	return nil
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func (a *app) watch(ctx context.Context) error {
	m, err := a.mirror(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Watching %d notes, Ctrl+C to stop\n", len(m.Notes()))

	return m.Follow(ctx, func(event domain.NoteEvent) {
		switch {
		case event.Type == domain.EventNoteDeleted:
			fmt.Fprintf(a.out, "- %s deleted\n", event.NoteID)
		case event.Note == nil:
		case event.Type == domain.EventNoteCreated:
			fmt.Fprintf(a.out, "+ %s %q\n", event.NoteID, event.Note.Title)
		default:
			fmt.Fprintf(a.out, "~ %s %q\n", event.NoteID, event.Note.Title)
		}
	})
}
