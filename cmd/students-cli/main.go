// students-cli is a command-line client for the students API. It keeps a
// local copy of the student list between runs and shares it with the
// server on every request.
//
// USAGE:
//
//	students-cli [-api URL] [-cache DIR] <command> [flags] [args]
//
//	list        [-search s] [-min-gpa x] [-max-gpa y]
//	get         <id>
//	create      -name n -reg r -major m -dob YYYY-MM-DD -gpa g
//	update      <id> [-name n] [-reg r] [-major m] [-dob d] [-gpa g]
//	delete      <id>
//	sync        push the local copy to the server and refresh it
//	clear-cache drop the local copy
//
// list and get print the local copy first, then the server's answer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"

	"github.com/aanand-mishra/student-records/internal/client"
	"github.com/aanand-mishra/student-records/internal/clientcache"
	"github.com/aanand-mishra/student-records/internal/types"
)

func main() {
	apiURL := flag.String("api", envOr("STUDENTS_API_URL", "http://localhost:8082/api"), "API base URL")
	cacheDir := flag.String("cache", envOr("STUDENTS_CACHE_DIR", ".students-cache"), "local cache directory (empty = in memory)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = usage
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	cache := clientcache.Open(*cacheDir, log)

	err := run(ctx, client.New(*apiURL, cache), os.Stdout, flag.Arg(0), flag.Args()[1:])

	cache.Close()
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client.Client, out io.Writer, cmd string, args []string) error {
	switch cmd {
	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		search := fs.String("search", "", "name, registration number or major contains")
		minGPA := fs.String("min-gpa", "", "minimum GPA")
		maxGPA := fs.String("max-gpa", "", "maximum GPA")
		if err := fs.Parse(args); err != nil {
			return err
		}
		opts := client.ListOptions{Search: *search, MinGPA: optFloat(*minGPA), MaxGPA: optFloat(*maxGPA)}

		if cached := c.Cached(); len(cached) > 0 && opts == (client.ListOptions{}) {
			fmt.Fprintln(out, "# cached")
			printStudents(out, cached)
		}

		students, err := c.List(ctx, opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "# server")
		printStudents(out, students)

	case "get":
		if len(args) != 1 {
			return errors.New("get needs exactly one id")
		}
		if s, ok := c.CachedByID(args[0]); ok {
			fmt.Fprintln(out, "# cached")
			printStudents(out, []types.Student{s})
		}
		s, err := c.Get(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "# server")
		printStudents(out, []types.Student{s})

	case "create":
		in, err := parseInput("create", args)
		if err != nil {
			return err
		}
		s, err := c.Create(ctx, in)
		if err != nil {
			return err
		}
		printStudents(out, []types.Student{s})

	case "update":
		if len(args) < 1 {
			return errors.New("update needs an id")
		}
		in, err := parseInput("update", args[1:])
		if err != nil {
			return err
		}
		s, err := c.Update(ctx, args[0], in)
		if err != nil {
			return err
		}
		printStudents(out, []types.Student{s})

	case "delete":
		if len(args) != 1 {
			return errors.New("delete needs exactly one id")
		}
		if err := c.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(out, "Student deleted successfully")

	case "sync":
		students, err := c.Sync(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "synced, %d students\n", len(students))

	case "clear-cache":
		c.ClearCache()
		fmt.Fprintln(out, "cache cleared")

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	return nil
}

// parseInput reads the student flags. Only flags that were actually set
// end up in the input, so update sends a partial record.
func parseInput(name string, args []string) (types.StudentInput, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.String("name", "", "full name")
	fs.String("reg", "", "9-digit registration number")
	fs.String("major", "", "major")
	fs.String("dob", "", "date of birth, YYYY-MM-DD")
	fs.String("gpa", "", "GPA, 0.0 to 4.0")
	if err := fs.Parse(args); err != nil {
		return types.StudentInput{}, err
	}

	var in types.StudentInput
	var gpaErr error
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		switch f.Name {
		case "name":
			in.Name = &v
		case "reg":
			in.RegistrationNumber = &v
		case "major":
			in.Major = &v
		case "dob":
			in.DOB = &v
		case "gpa":
			g, err := strconv.ParseFloat(v, 64)
			if err != nil {
				gpaErr = fmt.Errorf("-gpa: %w", err)
				return
			}
			in.GPA = &g
		}
	})

	return in, gpaErr
}

func printStudents(out io.Writer, students []types.Student) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tREG NO\tMAJOR\tDOB\tGPA")
	for _, s := range students {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\n", s.ID, s.Name, s.RegistrationNumber, s.Major, s.DOB, s.GPA)
	}
	tw.Flush()
}

func optFloat(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func usage() {
	fmt.Fprint(flag.CommandLine.Output(), `usage: students-cli [flags] <command> [args]

commands:
  list [-search s] [-min-gpa x] [-max-gpa y]
  get <id>
  create -name n -reg r -major m -dob YYYY-MM-DD -gpa g
  update <id> [-name n] [-reg r] [-major m] [-dob d] [-gpa g]
  delete <id>
  sync
  clear-cache

flags:
`)
	flag.PrintDefaults()
}
