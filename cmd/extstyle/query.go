package main

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"strings"

	"github.com/npillmayer/extstyle"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"
)

func newQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <html-file> <selector>",
		Short: "Evaluate one extended selector against a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0], args[1])
		},
	}
	return cmd
}

func runQuery(cmd *cobra.Command, htmlPath, selectorText string) error {
	doc, err := loadDocument(htmlPath)
	if err != nil {
		return err
	}
	nodes, elapsed, err := extstyle.Query(doc, selectorText)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d matches in %v\n", len(nodes), elapsed)
	for _, n := range nodes {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", describe(n))
	}
	return nil
}

func describe(n *html.Node) string {
	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(n.Data)
	for _, a := range n.Attr {
		sb.WriteString(fmt.Sprintf(" %s=%q", a.Key, a.Val))
	}
	sb.WriteString(">")
	return sb.String()
}
