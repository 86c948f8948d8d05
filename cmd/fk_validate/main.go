package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"

	"github.com/keilerkonzept/ams"
	"github.com/keilerkonzept/ams/internal/validation"
)

func main() {
	k := flag.Int("k", 2, "frequency moment to estimate")
	n := flag.Int("n", 100, "number of distinct items")
	lambda := flag.Float64("lambda", 0.5, "relative error bound")
	epsilon := flag.Float64("epsilon", 0.1, "failure probability")
	runs := flag.Int("runs", 500, "number of independent sketches")
	repeat := flag.Int64("repeat", 10, "occurrences of each item")
	hashName := flag.String("hash", ams.HashXXH32.String(), "hash family: xxh32, murmur3 or metro")
	seed := flag.Uint64("seed", 0, "seed for the counter seeds (0: random)")
	output := flag.String("o", "", "write estimate,actual pairs as CSV to this file")

	flag.Parse()

	h, err := ams.ParseHashFunc(*hashName)
	if err != nil {
		log.Fatal(err)
	}
	cfg := validation.Config{
		K:       *k,
		N:       *n,
		Lambda:  *lambda,
		Epsilon: *epsilon,
		Runs:    *runs,
		Repeat:  *repeat,
		Hash:    h,
	}
	if *seed != 0 {
		cfg.Rand = rand.New(rand.NewPCG(*seed, *seed))
	}

	report, err := validation.Run(cfg)
	if err != nil {
		log.Fatal(err)
	}

	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatal(err)
		}
		if err := report.WriteCSV(f); err != nil {
			log.Fatal(err)
		}
		if err := f.Close(); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Printf("%d runs with λ = %v, ε = %v (buckets = %d, copies = %d)\n",
		cfg.Runs, cfg.Lambda, cfg.Epsilon, report.Width, report.Depth)
	fmt.Printf("mean error %v\n", report.MeanError)
	fmt.Printf("median error %v, error proportion %v\n", report.MedianError, report.ErrorProportion)
	for _, q := range []float64{0.9, 0.99} {
		v, err := report.ErrorQuantile(q)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("p%v error %v\n", q*100, v)
	}
}
