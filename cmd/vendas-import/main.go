// Command vendas-import copies a sales file into the SQLite snapshot read by
// DATA_SOURCE=sqlite dashboards and announces the new snapshot over AMQP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"vendas/internal/amqp"
	"vendas/internal/cli"
	"vendas/internal/loader"
	"vendas/internal/services"
	"vendas/internal/source/file"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	path := flag.String("file", cfg.SalesFile, "sales file to import (local path or gs://bucket/object)")
	encoding := flag.String("encoding", cfg.SalesFileEncoding, "text encoding of the sales file")
	flag.Parse()

	opts := loader.DefaultOptions()
	opts.Encoding = *encoding
	if _, err := loader.Decoder(opts.Encoding); err != nil {
		logger.Error("Invalid encoding", "error", err)
		os.Exit(2)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var publisher services.ReloadPublisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			// the snapshot is still useful without the announcement
			logger.Warn("AMQP unavailable, dashboards must reload on their own", "error", err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ReloadTimeout)
	defer cancel()

	res, err := services.NewImportService(file.New(*path, opts), repo, publisher).Import(ctx)
	if err != nil {
		logger.Error("Import failed", "error", err, "file", *path)
		os.Exit(1)
	}

	fmt.Printf("Imported %d records from %s into %s\n", res.Records, res.Origin, cfg.SQLiteDBPath)
	if res.Skipped > 0 {
		fmt.Printf("  skipped rows: %d\n", res.Skipped)
	}
	fmt.Printf("  missing date: %d, missing total: %d, missing rating: %d\n",
		res.MissingDate, res.MissingTotal, res.MissingRating)
	if res.Published {
		fmt.Println("  reload announced on", cfg.AMQPExchange)
	}
}
