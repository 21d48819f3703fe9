// cmd/courtside is a command line client for the court directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jason-s-yu/courtside/internal/client"
	"github.com/jason-s-yu/courtside/internal/models"
	"github.com/jason-s-yu/courtside/internal/session"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

const usage = `usage: courtside <command> [flags]

commands:
  login    --phone P --code C          log in with a one-time code
  signup   --name N --phone P --location L --code C
  logout
  whoami
  courts   [--q QUERY] [--near LAT,LNG] [--limit N]
  court    ID
  players  [COURT_ID]                  every player, or those checked in at a court
  checkin  COURT_ID
  profile  [--name N] [--skill S] [--bio B] [--location L] [--avatar URL]
`

type app struct {
	api  *client.Client
	sess *session.Store
	out  io.Writer
}

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if os.Getenv("COURTSIDE_DEBUG") != "" {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	home, err := homeDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, "courtside:", err)
		os.Exit(1)
	}
	baseURL := os.Getenv("COURTSIDE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	api := client.New(baseURL, session.NewFileSlot(filepath.Join(home, "token")), logger)
	a := &app{
		api:  api,
		sess: session.NewStore(api, session.NewFileSlot(filepath.Join(home, "session.json")), logger),
		out:  os.Stdout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	a.sess.Restore(ctx)

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "courtside:", err)
		os.Exit(1)
	}
}

func homeDir() (string, error) {
	if h := os.Getenv("COURTSIDE_HOME"); h != "" {
		return h, nil
	}
	h, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(h, ".courtside"), nil
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "signup":
		return a.signup(ctx, args)
	case "logout":
		if err := a.api.Logout(ctx); err != nil {
			return err
		}
		return a.sess.Logout(ctx)
	case "whoami":
		return a.whoami()
	case "courts":
		return a.courts(ctx, args)
	case "court":
		return a.court(ctx, args)
	case "players":
		return a.players(ctx, args)
	case "checkin":
		return a.checkIn(ctx, args)
	case "profile":
		return a.profile(ctx, args)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	}
	return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
}

// verify requests and checks a one-time code before login or signup.
func (a *app) verify(ctx context.Context, phone, code string) error {
	if phone == "" || code == "" {
		return errors.New("--phone and --code are required")
	}
	if err := a.sess.RequestOTP(ctx, phone); err != nil {
		return err
	}
	ok, err := a.sess.VerifyOTP(ctx, phone, code)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("invalid verification code")
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	phone := fs.String("phone", "", "phone number")
	code := fs.String("code", "", "one-time code")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.verify(ctx, *phone, *code); err != nil {
		return err
	}
	if err := a.sess.Login(ctx, *phone); err != nil {
		return err
	}
	return a.whoami()
}

func (a *app) signup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	name := fs.String("name", "", "display name")
	phone := fs.String("phone", "", "phone number")
	location := fs.String("location", "", "home town")
	code := fs.String("code", "", "one-time code")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.verify(ctx, *phone, *code); err != nil {
		return err
	}
	if err := a.sess.Signup(ctx, *name, *phone, *location); err != nil {
		return err
	}
	return a.whoami()
}

func (a *app) whoami() error {
	st := a.sess.State()
	if !st.IsAuthenticated {
		fmt.Fprintln(a.out, "not logged in")
		return nil
	}
	printUser(a.out, *st.User)
	return nil
}

func (a *app) courts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("courts", flag.ContinueOnError)
	query := fs.String("q", "", "search by name, address or postal code")
	near := fs.String("near", "", "sort by distance from LAT,LNG")
	limit := fs.Int("limit", 0, "max courts with --near")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	if *near != "" {
		origin, err := parseCoordinate(*near)
		if err != nil {
			return err
		}
		courts, err := a.api.NearbyCourts(ctx, origin, *limit)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "ID\tNAME\tPLAYERS\tKM")
		for _, c := range courts {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f\n", c.ID, c.Name, c.PlayerCount, c.DistanceKm)
		}
		return nil
	}

	courts, err := a.api.ListCourts(ctx, *query)
	if err != nil {
		return err
	}
	fmt.Fprintln(tw, "ID\tNAME\tSURFACE\tPLAYERS\tADDRESS")
	for _, c := range courts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", c.ID, c.Name, c.SurfaceType, c.PlayerCount, c.Address)
	}
	return nil
}

func (a *app) court(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: courtside court ID")
	}
	c, err := a.api.Court(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (%s)\n%s\n", c.Name, c.ID, c.Address)
	fmt.Fprintf(a.out, "surface: %s  hours: %s\n", c.SurfaceType, c.Hours)
	if len(c.Amenities) > 0 {
		fmt.Fprintf(a.out, "amenities: %s\n", strings.Join(c.Amenities, ", "))
	}
	fmt.Fprintf(a.out, "players here now: %d\n", c.PlayerCount)
	if c.Description != "" {
		fmt.Fprintln(a.out, c.Description)
	}
	return nil
}

func (a *app) players(ctx context.Context, args []string) error {
	var (
		players []models.User
		err     error
	)
	switch len(args) {
	case 0:
		players, err = a.api.Players(ctx)
	case 1:
		players, err = a.api.CourtPlayers(ctx, args[0])
	default:
		return errors.New("usage: courtside players [COURT_ID]")
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	defer tw.Flush()
	fmt.Fprintln(tw, "ID\tNAME\tSKILL\tLOCATION")
	for _, p := range players {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.SkillLevel, p.Location)
	}
	return nil
}

func (a *app) checkIn(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: courtside checkin COURT_ID")
	}
	if !a.sess.State().IsAuthenticated {
		return client.ErrUnauthorized
	}
	c, err := a.api.CheckIn(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "checked in at %s, %d playing now\n", c.Name, c.PlayerCount)
	return nil
}

func (a *app) profile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	var patch models.ProfilePatch
	fs.Func("name", "display name", func(s string) error { patch.Name = &s; return nil })
	fs.Func("skill", "Beginner, Intermediate, Advanced or Pro", func(s string) error {
		lvl := models.SkillLevel(s)
		patch.SkillLevel = &lvl
		return nil
	})
	fs.Func("bio", "short bio", func(s string) error { patch.Bio = &s; return nil })
	fs.Func("location", "home town", func(s string) error { patch.Location = &s; return nil })
	fs.Func("avatar", "avatar URL", func(s string) error { patch.AvatarURL = &s; return nil })
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !a.sess.State().IsAuthenticated {
		return client.ErrUnauthorized
	}

	var (
		u   *models.User
		err error
	)
	if patch.Empty() {
		u, err = a.api.Profile(ctx)
	} else {
		u, err = a.api.UpdateProfile(ctx, patch)
	}
	if err != nil {
		return err
	}
	if err := a.sess.UpdateUser(ctx, *u); err != nil {
		return err
	}
	printUser(a.out, *u)
	return nil
}

func printUser(w io.Writer, u models.User) {
	fmt.Fprintf(w, "%s (%s)\n", u.Name, u.ID)
	fmt.Fprintf(w, "phone: %s  skill: %s\n", u.PhoneNumber, u.SkillLevel)
	if u.Location != "" {
		fmt.Fprintf(w, "location: %s\n", u.Location)
	}
	if u.Bio != "" {
		fmt.Fprintln(w, u.Bio)
	}
	fmt.Fprintf(w, "joined %s\n", u.JoinedAt.Format("Jan 2006"))
}

func parseCoordinate(s string) (*models.Coordinate, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("--near wants LAT,LNG, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return nil, fmt.Errorf("bad latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return nil, fmt.Errorf("bad longitude: %w", err)
	}
	return &models.Coordinate{Lat: lat, Lng: lng}, nil
}
