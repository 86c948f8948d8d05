package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/keilerkonzept/ams"
	"github.com/keilerkonzept/ams/internal/validation"
	"github.com/keilerkonzept/ams/sliding"
)

// sketch is implemented by both the whole-stream and the sliding-window sketch.
type sketch interface {
	UpdateString(item string) error
	Estimate() float64
}

func main() {
	fileName := flag.String("f", "", "file name")
	k := flag.Int("k", 2, "frequency moment to estimate")
	n := flag.Int("n", 1000, "expected number of distinct items")
	lambda := flag.Float64("lambda", 0.5, "relative error bound, lower value - more memory used but more accurate results")
	epsilon := flag.Float64("epsilon", 0.1, "failure probability, lower value - more estimators")
	hashName := flag.String("hash", ams.HashXXH32.String(), "hash family: xxh32, murmur3 or metro")
	seed := flag.Uint64("seed", 0, "seed for the counter seeds (0: random)")
	window := flag.Int("window", 0, "if > 0, estimate over the last `window` lines only")
	exact := flag.Bool("exact", false, "also compute the exact moment")

	flag.Parse()

	var reader io.Reader
	if *fileName == "" {
		reader = os.Stdin
	} else {
		f, err := os.Open(*fileName)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		reader = f
	}

	h, err := ams.ParseHashFunc(*hashName)
	if err != nil {
		log.Fatal(err)
	}
	var r *rand.Rand
	if *seed != 0 {
		r = rand.New(rand.NewPCG(*seed, *seed))
	}

	var (
		s    sketch
		tick func()
	)
	if *window > 0 {
		w, err := sliding.New(*k, *n, *lambda, *epsilon, *window, sliding.WithHash(h), sliding.WithRand(r))
		if err != nil {
			log.Fatal(err)
		}
		s, tick = w, w.Tick
	} else {
		w, err := ams.New(*k, *n, *lambda, *epsilon, ams.WithHash(h), ams.WithRand(r))
		if err != nil {
			log.Fatal(err)
		}
		s, tick = w, func() {}
	}

	var counts *validation.Exact[string]
	if *exact {
		if *window > 0 {
			log.Fatal("-exact is not supported together with -window")
		}
		counts = validation.NewExact[string](*k)
	}

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		for _, item := range strings.Fields(scanner.Text()) {
			if err := s.UpdateString(item); err != nil {
				log.Fatal(err)
			}
			if counts != nil {
				counts.Update(item)
			}
		}
		tick()
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	estimate := s.Estimate()
	fmt.Printf("estimate : %v\n", estimate)
	if counts != nil {
		actual := counts.Moment()
		fmt.Printf("actual : %v\n", actual)
		fmt.Printf("distinct : %d\n", len(counts.Counts))
		if actual != 0 {
			fmt.Printf("relative error : %v\n", (estimate-actual)/actual)
		}
	}
}
