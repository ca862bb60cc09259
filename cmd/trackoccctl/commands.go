package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"trackoccupancy/internal/app"
	"trackoccupancy/internal/occupancy"
	"trackoccupancy/internal/snapshot"
)

var errNotLoggedIn = errors.New("not logged in, run `trackoccctl login` first")

type cli struct {
	out        io.Writer
	configPath string
	asJSON     bool
	verbose    bool
	app        *app.App
}

// run executes the command line in args and releases the app afterwards.
func run(ctx context.Context, out io.Writer, args []string) error {
	c := &cli{out: out}
	root := c.rootCmd()
	root.SetArgs(args)
	defer func() {
		if c.app != nil {
			c.app.Close()
		}
	}()
	return root.ExecuteContext(ctx)
}

func (c *cli) rootCmd() *cobra.Command {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "./config/config.yaml"
	}

	root := &cobra.Command{
		Use:          "trackoccctl",
		Short:        "Browse auditorium occupancy from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			if c.verbose {
				log.SetOutput(os.Stderr)
			}
			loadDotenv()
			cfg, err := app.LoadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.app, err = app.New(cmd.Context(), cfg)
			return err
		},
	}
	root.SetOut(c.out)
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", defaultConfig, "Path to configuration")
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "Print raw JSON")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log backend calls to stderr")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.statusCmd(),
		c.langCmd(),
		c.citiesCmd(),
		c.buildingsCmd(),
		c.auditoriumsCmd(),
		c.statsCmd(),
		c.camerasCmd(),
		c.snapshotCmd(),
	)
	return root
}

func (c *cli) requireLogin(cmd *cobra.Command, args []string) error {
	if !c.app.Session.LoggedIn() {
		return errNotLoggedIn
	}
	return nil
}

func (c *cli) language(cmd *cobra.Command) string {
	lang, err := c.app.Session.Language(cmd.Context())
	if err != nil {
		return "en"
	}
	return lang
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
}

func parseIDs(args []string, names ...string) ([]int64, error) {
	ids := make([]int64, len(args))
	for i, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s ID %q", names[i], arg)
		}
		ids[i] = id
	}
	return ids, nil
}

func (c *cli) loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <login>",
		Short: "Log in to the occupancy backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("TRACKOCC_PASSWORD")
			}
			if password == "" {
				return errors.New("password is required (--password or TRACKOCC_PASSWORD)")
			}
			if _, err := c.app.Session.Login(cmd.Context(), args[0], password); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Logged in")
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Session.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Logged out")
			return nil
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status := struct {
				LoggedIn bool   `json:"logged_in"`
				Language string `json:"language"`
				Backend  string `json:"backend"`
			}{c.app.Session.LoggedIn(), c.language(cmd), c.app.Config.API.BaseURL}
			if c.asJSON {
				return c.printJSON(status)
			}
			fmt.Fprintf(c.out, "Logged in: %t\nLanguage:  %s\nBackend:   %s\n", status.LoggedIn, status.Language, status.Backend)
			return nil
		},
	}
}

func (c *cli) langCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lang [en|ru]",
		Short: "Show or set the display language",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := c.app.Session.SetLanguage(cmd.Context(), args[0]); err != nil {
					return err
				}
			}
			fmt.Fprintln(c.out, c.language(cmd))
			return nil
		},
	}
}

func (c *cli) citiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "cities",
		Short:   "List cities",
		Args:    cobra.NoArgs,
		PreRunE: c.requireLogin,
		RunE: func(cmd *cobra.Command, args []string) error {
			cities, err := c.app.Client.Cities(cmd.Context())
			if err != nil {
				return err
			}
			if c.asJSON {
				return c.printJSON(cities)
			}
			lang := c.language(cmd)
			w := c.table()
			fmt.Fprintln(w, "ID\tNAME")
			for _, city := range cities {
				fmt.Fprintf(w, "%d\t%s\n", city.ID, city.Name.Value(lang))
			}
			return w.Flush()
		},
	}
}

func (c *cli) buildingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "buildings <city>",
		Short:   "List the buildings of a city",
		Args:    cobra.ExactArgs(1),
		PreRunE: c.requireLogin,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args, "city")
			if err != nil {
				return err
			}
			buildings, err := c.app.Client.Buildings(cmd.Context(), ids[0])
			if err != nil {
				return err
			}
			if c.asJSON {
				return c.printJSON(buildings)
			}
			lang := c.language(cmd)
			w := c.table()
			fmt.Fprintln(w, "ID\tADDRESS\tFLOORS")
			for _, b := range buildings {
				fmt.Fprintf(w, "%d\t%s\t%d\n", b.ID, b.Address.Value(lang), b.FloorsCount)
			}
			return w.Flush()
		},
	}
}

func (c *cli) auditoriumsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "auditoriums <city> <building>",
		Short:   "List the auditoriums of a building with their current occupancy",
		Args:    cobra.ExactArgs(2),
		PreRunE: c.requireLogin,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args, "city", "building")
			if err != nil {
				return err
			}
			merged, err := c.app.Occupancy.Building(cmd.Context(), ids[0], ids[1])
			if err != nil {
				return err
			}
			if c.asJSON {
				return c.printJSON(merged)
			}
			lang := c.language(cmd)
			w := c.table()
			fmt.Fprintln(w, "ID\tNUMBER\tFLOOR\tTYPE\tPEOPLE\tCAPACITY\tLOAD\tLEVEL\tFRESH")
			for _, a := range merged {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%d\t%d\t%d%%\t%s\t%t\n",
					a.Auditorium.ID, a.Auditorium.AuditoriumNumber, a.Auditorium.FloorNumber,
					a.Auditorium.Type.Value(lang), a.CurrentOccupancy, a.Auditorium.Capacity,
					a.OccupancyPercentage, a.Level, a.IsFresh)
			}
			return w.Flush()
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:     "stats <city> <building> <auditorium>",
		Short:   "Show the hourly occupancy of a day",
		Args:    cobra.ExactArgs(3),
		PreRunE: c.requireLogin,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args, "city", "building", "auditorium")
			if err != nil {
				return err
			}
			if day == "" {
				day = time.Now().In(c.app.Config.Server.Location).Format(occupancy.DayLayout)
			}
			history, err := c.app.Occupancy.History(cmd.Context(), ids[0], ids[1], ids[2], day)
			if err != nil {
				return err
			}
			if c.asJSON {
				return c.printJSON(history)
			}
			if history.Warning != nil {
				fmt.Fprintf(c.out, "Warning: %s\n", *history.Warning)
			}
			w := c.table()
			fmt.Fprintln(w, "HOUR\tAVG\tCAPACITY\tLOAD\tLEVEL")
			for _, p := range history.Points {
				fmt.Fprintf(w, "%02d:00\t%.1f\t%d\t%d%%\t%s\n", p.Hour, p.AvgPersonCount, p.Capacity, p.Percentage, p.Level)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "Day as YYYY-MM-DD (default today)")
	return cmd
}

func (c *cli) camerasCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "cameras <city> <building> <auditorium>",
		Short:   "List the cameras of an auditorium",
		Args:    cobra.ExactArgs(3),
		PreRunE: c.requireLogin,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args, "city", "building", "auditorium")
			if err != nil {
				return err
			}
			cameras, err := c.app.Client.Cameras(cmd.Context(), ids[0], ids[1], ids[2])
			if err != nil {
				return err
			}
			if c.asJSON {
				return c.printJSON(cameras)
			}
			w := c.table()
			fmt.Fprintln(w, "ID\tMAC")
			for _, cam := range cameras {
				fmt.Fprintf(w, "%d\t%s\n", cam.ID, cam.MAC)
			}
			return w.Flush()
		},
	}
}

func (c *cli) snapshotCmd() *cobra.Command {
	var (
		output string
		follow bool
	)
	cmd := &cobra.Command{
		Use:     "snapshot <mac>",
		Short:   "Save a camera snapshot as JPEG",
		Long:    "Save a camera snapshot as JPEG. With --follow the file is rewritten on every frame until interrupted.",
		Args:    cobra.ExactArgs(1),
		PreRunE: c.requireLogin,
		RunE: func(cmd *cobra.Command, args []string) error {
			mac := args[0]
			quality := c.app.Config.Snapshot.JPEGQuality

			if !follow {
				frame, err := c.app.Poller.Once(cmd.Context(), mac)
				if err != nil {
					return err
				}
				return c.saveFrame(frame, output, quality)
			}

			c.app.Poller.Run(cmd.Context(), mac, func(frame snapshot.Frame) {
				if err := c.saveFrame(frame, output, quality); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				}
			})
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "snapshot.jpg", "Output file")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep polling until interrupted")
	return cmd
}

// saveFrame replaces output atomically so viewers never read a partial image.
func (c *cli) saveFrame(frame snapshot.Frame, output string, quality int) error {
	data, err := frame.JPEG(quality)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(output), ".snapshot-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), output); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s  %s  %d bytes -> %s\n", frame.FetchedAt.Format(time.TimeOnly), frame.MAC, len(data), output)
	return nil
}
