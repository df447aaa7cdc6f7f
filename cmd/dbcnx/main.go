package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joacominatel/dbcnx/internal/app"
	"github.com/joacominatel/dbcnx/internal/config"
	"github.com/joacominatel/dbcnx/internal/database"
	"github.com/joacominatel/dbcnx/internal/database/drivers"
	"github.com/joacominatel/dbcnx/internal/logger"
	"github.com/joacominatel/dbcnx/internal/tui"
	"github.com/joacominatel/dbcnx/internal/tui/results"
	"github.com/joacominatel/dbcnx/internal/tui/statusbar"
)

type flags struct {
	config       string
	query        string
	shape        string
	mode         string
	exec         bool
	batch        string
	output       string
	spinner      bool
	strict       bool
	savePassword bool
}

func main() {
	var f flags
	flag.StringVar(&f.config, "config", "", "path to the YAML settings file")
	flag.StringVar(&f.query, "query", "", "statement to run")
	flag.StringVar(&f.shape, "shape", string(database.ShapeDict), "result shape for reads: dict or list")
	flag.StringVar(&f.mode, "mode", "single", "connection mode: single, pool or async")
	flag.BoolVar(&f.exec, "exec", false, "run the statement as a write and commit it")
	flag.StringVar(&f.batch, "batch", "", "JSON-lines file of value sets for a batch write (- for stdin)")
	flag.StringVar(&f.output, "output", "table", "output format for reads: table or json")
	flag.BoolVar(&f.spinner, "tui", false, "show a spinner while an async call runs")
	flag.BoolVar(&f.strict, "strict", false, "fail calls when the setup is missing required keys")
	flag.BoolVar(&f.savePassword, "keyring-save", false, "read a password from stdin and store it in the OS keyring")
	flag.Parse()

	if err := run(f); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func run(f flags) error {
	settings, err := config.Load(f.config)
	if err != nil {
		return err
	}

	logger.Init(logger.LogLevel(settings.Logging.Level), settings.Logging.Format)
	log := logger.Get()

	if f.savePassword {
		return savePassword(settings, os.Stdin)
	}

	if err := settings.ResolvePassword(); err != nil {
		log.WarnWithErr("password not resolved", err)
	}

	if f.query == "" {
		return errors.New("no statement given, use -query")
	}

	driver, err := drivers.New(settings)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []app.Option{
		app.WithLogger(log),
		app.WithFetchSize(settings.Fetch.Size),
		app.WithAcquireTimeout(settings.Pool.AcquireTimeout),
	}
	if f.strict {
		opts = append(opts, app.WithStrictSetup())
	}

	var values [][]any
	if f.batch != "" {
		values, err = readBatchFile(f.batch)
		if err != nil {
			return err
		}
	}

	var exec app.Executor
	switch f.mode {
	case "single":
		exec = app.NewConnectionManager(driver, settings.Setup, opts...)
	case "pool", "async":
		registry := app.NewRegistry(driver, opts...)
		defer registry.Close()
		exec = registry.PoolManager(ctx, settings.Setup, settings.Pool.Size)
	default:
		return fmt.Errorf("unknown mode %q", f.mode)
	}

	if dir, ok := database.ClientLibDir(); ok {
		log.Debug("client runtime", "lib_dir", dir)
	}

	if f.mode == "async" {
		am := app.NewAsyncManager(exec, settings.Async.Workers, opts...)
		defer am.Close()
		return runAsync(ctx, am, f, values, settings)
	}
	return runSync(ctx, exec, f, values)
}

func runSync(ctx context.Context, exec app.Executor, f flags, values [][]any) error {
	switch {
	case f.batch != "":
		if err := exec.ExecuteBatch(ctx, f.query, values); err != nil {
			return err
		}
		fmt.Printf("%d value sets committed\n", len(values))
		return nil
	case f.exec:
		if err := exec.Execute(ctx, f.query); err != nil {
			return err
		}
		fmt.Println("statement committed")
		return nil
	default:
		rs, err := exec.Read(ctx, f.query, database.Shape(f.shape))
		if err != nil {
			return err
		}
		return printResult(os.Stdout, rs, f.output)
	}
}

func runAsync(ctx context.Context, am *app.AsyncManager, f flags, values [][]any, s *config.Settings) error {
	var await tui.AwaitFunc
	switch {
	case f.batch != "":
		fut := am.ExecuteBatch(ctx, f.query, values)
		await = func() (*database.ResultSet, error) {
			_, err := fut.Await(ctx)
			return nil, err
		}
	case f.exec:
		fut := am.Execute(ctx, f.query)
		await = func() (*database.ResultSet, error) {
			_, err := fut.Await(ctx)
			return nil, err
		}
	default:
		fut := am.Read(ctx, f.query, database.Shape(f.shape))
		await = func() (*database.ResultSet, error) {
			return fut.Await(ctx)
		}
	}

	var (
		rs  *database.ResultSet
		err error
	)
	if f.spinner {
		bar := statusbar.New(s.Setup.Connection().Identity(), f.mode)
		rs, err = tui.Wait(f.query, bar, await)
	} else {
		rs, err = await()
	}
	if err != nil {
		return err
	}

	if f.batch != "" || f.exec {
		fmt.Println("statement committed")
		return nil
	}
	return printResult(os.Stdout, rs, f.output)
}

func printResult(w io.Writer, rs *database.ResultSet, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if rs.Shape == database.ShapeList {
			return enc.Encode(rs.Rows)
		}
		return enc.Encode(rs.Records)
	default:
		_, err := fmt.Fprintln(w, results.Render(rs))
		return err
	}
}

func readBatchFile(path string) ([][]any, error) {
	if path == "-" {
		return parseBatch(os.Stdin)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	defer file.Close()
	return parseBatch(file)
}

// parseBatch reads one JSON array of values per line. Blank lines are skipped.
func parseBatch(r io.Reader) ([][]any, error) {
	var values [][]any
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text))
		dec.UseNumber()
		var set []any
		if err := dec.Decode(&set); err != nil {
			return nil, fmt.Errorf("batch line %d: %w", line, err)
		}
		for i, v := range set {
			set[i] = jsonValue(v)
		}
		values = append(values, set)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	return values, nil
}

func jsonValue(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func savePassword(s *config.Settings, r io.Reader) error {
	user := s.Setup.Value(config.KeyUser)
	if user == "" {
		return errors.New("no user in setup")
	}
	fmt.Fprintf(os.Stderr, "Password for %s: ", user)
	pw, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	pw = strings.TrimRight(pw, "\r\n")
	if err := s.StorePassword(user, pw); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "password stored")
	return nil
}

func exitCode(err error) int {
	switch app.KindOf(err) {
	case app.KindConfigIncomplete, app.KindInvalidRequest:
		return 2
	case app.KindConnection:
		return 3
	case app.KindStatement, app.KindMaterialization:
		return 4
	default:
		return 1
	}
}
