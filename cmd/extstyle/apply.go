package main

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"os"

	"github.com/npillmayer/extstyle"
	"github.com/npillmayer/extstyle/dom"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"
)

func newApplyCommand() *cobra.Command {
	var rulesPath string
	var dump bool
	cmd := &cobra.Command{
		Use:   "apply <html-file>",
		Short: "Apply a rule file to an HTML document and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, args[0], rulesPath, dump)
		},
	}
	cmd.Flags().StringVarP(&rulesPath, "rules", "r", "", "rule file with extended-selector CSS (required)")
	cmd.Flags().BoolVar(&dump, "dump", false, "dump the affected-element set instead of the document")
	_ = cmd.MarkFlagRequired("rules")
	return cmd
}

func runApply(cmd *cobra.Command, htmlPath, rulesPath string, dump bool) error {
	doc, err := loadDocument(htmlPath)
	if err != nil {
		return err
	}
	rules, err := os.ReadFile(rulesPath)
	if err != nil {
		return fmt.Errorf("read rules: %w", err)
	}
	engine, err := extstyle.New(doc, string(rules))
	if err != nil {
		return err
	}
	engine.Apply()
	defer engine.Dispose()

	if dump {
		fmt.Fprint(cmd.OutOrStdout(), engine.DumpAffected())
		return nil
	}
	if err := html.Render(cmd.OutOrStdout(), doc.Root()); err != nil {
		return fmt.Errorf("render document: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

func loadDocument(path string) (*dom.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	doc, err := dom.FromHTML(f)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}
