package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/opencog/question2atomese/internal/db"
	"github.com/opencog/question2atomese/internal/util"
	"github.com/opencog/question2atomese/pkg/atomese"
	"github.com/opencog/question2atomese/pkg/leaselock"
	"github.com/opencog/question2atomese/pkg/logger"
	"github.com/opencog/question2atomese/pkg/logger/console"
	"github.com/opencog/question2atomese/pkg/translate"
)

func main() {
	util.LoadEnv()

	in := flag.String("in", "", "question file or s3://bucket/key (a key ending in / reads every .json and .jsonl below it)")
	format := flag.String("format", "", "input format json or jsonl (default: from file extension)")
	storeKind := flag.String("store", db.KindMemory, "translation storage: memory, sqlite or postgres")
	sqlitePath := flag.String("sqlite", "translations.db", "sqlite database path")
	configPath := flag.String("config", util.GetEnv("RELEX_CONFIG"), "YAML relation mapping merged over the defaults")
	stats := flag.Int("stats", 20, "number of most frequent shapes to print (0 prints all)")
	printScheme := flag.Bool("scheme", false, "print the Atomese query of every translation")
	out := flag.String("out", "", "write translations as JSONL to a file or s3:// location")
	parallel := flag.Int("parallel", util.GetEnvInt("TRANSLATE_PARALLEL", 4), "questions translated concurrently")
	wait := flag.Bool("wait", false, "with -store postgres, wait for a concurrent import of the same input instead of exiting")
	debug := flag.Bool("debug", util.GetEnvBool("DEBUG", false), "enable debug logging")
	flag.Parse()

	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  *debug,
		Prefix: "translate",
		Output: os.Stderr,
	}))

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := atomese.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load relex config", "err", err)
	}
	client, err := translate.NewClient(translate.NewClientParams{
		ParallelQuestions: *parallel,
		MaxRetries:        util.GetEnvInt("TRANSLATE_RETRIES", 3),
		Config:            cfg,
	})
	if err != nil {
		logger.Fatal("Failed to create translator", "err", err)
	}

	dsn := util.GetEnv("DATABASE_URL")
	if *storeKind == db.KindSQLite {
		dsn = *sqlitePath
	}
	storage, err := db.OpenStorage(ctx, *storeKind, dsn)
	if err != nil {
		logger.Fatal("Failed to open storage", "store", *storeKind, "err", err)
	}
	defer storage.Close()

	records, err := loadQuestions(ctx, *in, *format)
	if err != nil {
		logger.Fatal("Failed to load questions", "in", *in, "err", err)
	}

	var report *translate.Report
	run := func(ctx context.Context) error {
		var err error
		report, err = client.TranslateAll(ctx, records, storage)
		return err
	}
	if *storeKind == db.KindPostgres {
		pool, err := db.OpenPool(ctx, dsn)
		if err != nil {
			logger.Fatal("Failed to open lock connection", "err", err)
		}
		defer pool.Close()
		err = leaselock.New(pool).Do(ctx, "translate:"+*in, leaselock.Options{Wait: *wait}, run)
		if errors.Is(err, leaselock.ErrBusy) {
			logger.Fatal("Another import of this input is running", "in", *in)
		}
		if err != nil {
			logger.Fatal("Translation failed", "err", err)
		}
	} else if err := run(ctx); err != nil {
		logger.Fatal("Translation failed", "err", err)
	}

	for _, f := range report.Failed {
		logger.Warn("Question not translated", "index", f.Index, "question_id", f.QuestionID, "err", f.Err)
	}
	logger.Info("Translation finished", "translated", report.Translated, "failed", len(report.Failed))

	if *printScheme {
		for _, t := range report.Translations {
			fmt.Printf("; %d %s\n; %s\n%s\n\n", t.QuestionID, t.Question, t.Formula, t.Scheme)
		}
	}

	shapes, err := storage.ShapeStatistics(ctx, *stats)
	if err != nil {
		logger.Fatal("Failed to compute shape statistics", "err", err)
	}
	printShapes(os.Stdout, shapes)

	if *out != "" {
		if err := writeTranslations(ctx, *out, report.Translations); err != nil {
			logger.Fatal("Failed to write translations", "out", *out, "err", err)
		}
		logger.Info("Translations written", "out", *out, "count", len(report.Translations))
	}
}
