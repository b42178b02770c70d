package main

import (
	"strconv"

	"github.com/pterm/pterm"

	"github.com/luca-patrignani/chain-verifier/verifier"
)

const shortHashLen = 12

func shortHash(h string) string {
	if len(h) <= shortHashLen {
		return h
	}
	return h[:shortHashLen] + "…"
}

// statusLabel colors a status the way it is shown everywhere in the CLI.
func statusLabel(s verifier.Status) string {
	switch s {
	case verifier.Valid:
		return pterm.LightGreen(s.String())
	case verifier.Recovered:
		return pterm.LightYellow(s.String())
	case verifier.Tampered:
		return pterm.LightRed(s.String())
	}
	return s.String()
}

// entriesTable lays out entries oldest first, one row per block.
func entriesTable(entries []verifier.Entry) pterm.TableData {
	data := pterm.TableData{{"Index", "Status", "Data", "Previous hash", "Hash"}}
	for _, e := range entries {
		data = append(data, []string{
			strconv.FormatUint(e.Block.Index, 10),
			statusLabel(e.Status),
			e.Block.Data,
			shortHash(e.Block.PrevHash),
			shortHash(e.Block.Hash),
		})
	}
	return data
}

func summary(entries []verifier.Entry) string {
	counts := verifier.Counts(entries)
	return pterm.Sprintf("%s %d   %s %d   %s %d",
		statusLabel(verifier.Valid), counts[verifier.Valid],
		statusLabel(verifier.Tampered), counts[verifier.Tampered],
		statusLabel(verifier.Recovered), counts[verifier.Recovered],
	)
}

func printEntries(title string, entries []verifier.Entry) {
	pterm.DefaultSection.Println(title)
	if len(entries) == 0 {
		pterm.Info.Println("The chain is empty")
		return
	}
	_ = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(entriesTable(entries)).Render()
	pterm.Println(summary(entries))
}
