package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"rpsvision/internal/classifier"
	"rpsvision/internal/dataset"
	"rpsvision/internal/evaluation"
	"rpsvision/internal/repository/sqlite"
	"rpsvision/internal/service"
	"rpsvision/internal/vision"
	"text/tabwriter"
	"time"
)

func main() {
	datasetDir := flag.String("dataset", "data/rps", "Directory with rock/paper/scissors subdirectories")
	dbPath := flag.String("db", "data/rpsvision.db", "Database path; empty to skip saving")
	size := flag.Int("size", evaluation.DefaultTestSize, "Number of test examples")
	epochs := flag.Int("epochs", 0, "Training batches to fit before the trained evaluation")
	batch := flag.Int("batch", 512, "Training batch size")
	lr := flag.Float64("lr", 0.05, "Learning rate")
	testFraction := flag.Float64("test-fraction", 0.2, "Share of the dataset held out for evaluation")
	seed := flag.Int64("seed", 42, "Shuffle and weight seed")
	flag.Parse()

	ds, err := dataset.LoadFolder(*datasetDir, *testFraction, *seed)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}
	train, test := ds.Counts()
	fmt.Printf("Loaded %d train / %d test examples from %s\n", train, test, *datasetDir)

	session := service.NewSession(*batch)
	session.SetClassifier(classifier.NewSoftmax(vision.ImageSize, *lr, 1, *seed))
	session.SetDataset(ds)

	ctx := context.Background()
	reports := []evaluation.Report{mustEvaluate(ctx, session, *size, "Untrained")}

	if *epochs > 0 {
		start := time.Now()
		if err := session.Train(ctx, *epochs); err != nil {
			log.Fatalf("Failed to train: %v", err)
		}
		fmt.Printf("Trained %d epoch(s) in %s\n", *epochs, time.Since(start).Round(time.Millisecond))
		reports = append(reports, mustEvaluate(ctx, session, *size, "Trained"))
	}

	for _, r := range reports {
		printReport(r)
	}

	if *dbPath == "" {
		return
	}
	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	repo := sqlite.NewEvaluationRepository(db)
	for _, r := range reports {
		if _, err := repo.Insert(service.NewEvaluationRun(r, time.Now())); err != nil {
			log.Fatalf("Failed to save %s: %v", r.Title, err)
		}
	}
	fmt.Printf("✅ Saved %d evaluation(s) to %s\n", len(reports), *dbPath)
}

func mustEvaluate(ctx context.Context, session *service.Session, size int, title string) evaluation.Report {
	report, err := session.Evaluate(ctx, size, title)
	if err != nil {
		log.Fatalf("Failed to evaluate: %v", err)
	}
	return report
}

func printReport(r evaluation.Report) {
	fmt.Printf("\n%s (%d examples, overall %.2f%%)\n", r.Title, r.TestSize, r.Overall*100)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Class\tAccuracy\tExamples")
	for _, acc := range r.Accuracy {
		fmt.Fprintf(w, "%s\t%.2f\t%d\n", acc.ClassName, acc.Accuracy, acc.Count)
	}
	w.Flush()

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "true \\ predicted")
	for _, name := range r.ClassNames {
		fmt.Fprintf(w, "\t%s", name)
	}
	fmt.Fprintln(w)
	for i, row := range r.Confusion {
		fmt.Fprint(w, r.ClassNames[i])
		for _, v := range row {
			fmt.Fprintf(w, "\t%d", v)
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}
