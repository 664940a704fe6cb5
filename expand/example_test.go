package expand_test

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/exbook/exmerge/expand"
)

// Example_withIncludes demonstrates how the expand package might be used
// with an include directory
func Example_withIncludes() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r, err := expand.NewResolver(logger, expand.Dir("testdata/exercises"))
	if err != nil {
		fmt.Printf("Unexpected error creating a new resolver")
		return
	}

	e, err := expand.NewExpander(r, logger)
	if err != nil {
		fmt.Printf("Unexpected error creating a new expander")
		return
	}

	fmt.Println(e.Expand("\\exinput{warmup}\n\\printreview"))
	// Output:
	// Compute 2+2.
	// Review
}

// Example_labelsOnly demonstrates how the expand package might be used
// without any include directory
func Example_labelsOnly() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r, err := expand.NewResolver(logger)
	if err != nil {
		fmt.Printf("Unexpected error creating a new resolver")
		return
	}

	e, err := expand.NewExpander(r, logger)
	if err != nil {
		fmt.Printf("Unexpected error creating a new expander")
		return
	}

	fmt.Println(e.Expand("Sections: \\printconcepts, \\printproblems"))
	// Output:
	// Sections: Terms and Concepts, Problems
}
