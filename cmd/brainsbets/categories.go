package main

import (
	"context"
	"fmt"
	"io"
	"os"
)

// CategoriesCmd lists the categories in a questions directory
type CategoriesCmd struct {
	Dir string `arg:"" optional:"" type:"existingdir" help:"Questions directory (built-in questions when omitted)"`
}

func (c *CategoriesCmd) Run() error {
	return listCategories(context.Background(), os.Stdout, c.Dir)
}

func listCategories(ctx context.Context, w io.Writer, dir string) error {
	repo, err := loadQuestions(ctx, dir)
	if err != nil {
		return err
	}
	for _, name := range repo.Categories() {
		fmt.Fprintf(w, "%-16s %d questions\n", name, repo.Count(name))
	}
	return nil
}
