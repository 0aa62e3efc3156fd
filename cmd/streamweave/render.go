package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/streamweave/streamweave/internal/graph"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

func renderGraphSummary(w io.Writer, g *graph.StreamGraph) error {
	fmt.Fprintf(w, "%s\n", titleStyle.Render(fmt.Sprintf("Job: %s", g.JobName())))
	fmt.Fprintf(w, "%s\n\n", idStyle.Render(g.JobID().String()))

	fmt.Fprintf(w, "%s\n", sectionStyle.Render("Nodes"))
	for _, node := range g.Nodes() {
		fmt.Fprintf(w, "  %4d  %-30s p=%d", node.ID, node.Name, node.Parallelism)
		if node.MaxParallelism > 0 {
			fmt.Fprintf(w, " max=%d", node.MaxParallelism)
		}
		if node.SlotSharingGroup != graph.DefaultSlotSharingGroup {
			fmt.Fprintf(w, " slot=%s", node.SlotSharingGroup)
		}
		if node.UID != "" {
			fmt.Fprintf(w, " uid=%s", node.UID)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\n%s\n", sectionStyle.Render("Edges"))
	for _, edge := range g.Edges() {
		fmt.Fprintf(w, "  %d -> %d  [%s]", edge.SourceID, edge.TargetID, edge.Partitioner.Kind())
		if edge.TypeNumber > 0 {
			fmt.Fprintf(w, " input=%d", edge.TypeNumber)
		}
		if len(edge.SelectedNames) > 0 {
			fmt.Fprintf(w, " select=%s", strings.Join(edge.SelectedNames, ","))
		}
		if edge.OutputTag != nil {
			fmt.Fprintf(w, " tag=%s", edge.OutputTag.ID())
		}
		fmt.Fprintln(w)
	}

	if pairs := g.IterationPairs(); len(pairs) > 0 {
		fmt.Fprintf(w, "\n%s\n", sectionStyle.Render("Iterations"))
		for _, pair := range pairs {
			fmt.Fprintf(w, "  %s (%d) <-> %s (%d) wait=%s\n",
				pair.Source.Name, pair.Source.ID, pair.Sink.Name, pair.Sink.ID, pair.WaitTime)
		}
	}

	fmt.Fprintf(w, "\nsources: %v  sinks: %v\n", g.SourceIDs(), g.SinkIDs())
	return nil
}

type graphJSONPayload struct {
	JobID   string            `json:"job_id"`
	JobName string            `json:"job_name"`
	Nodes   []nodeJSONPayload `json:"nodes"`
	Edges   []edgeJSONPayload `json:"edges"`
	Sources []int             `json:"sources"`
	Sinks   []int             `json:"sinks"`
}

type nodeJSONPayload struct {
	ID               int           `json:"id"`
	Name             string        `json:"name"`
	Parallelism      int           `json:"parallelism"`
	MaxParallelism   int           `json:"max_parallelism,omitempty"`
	SlotSharingGroup string `json:"slot_sharing_group"`
	UID              string `json:"uid,omitempty"`
	BufferTimeoutMS  *int64 `json:"buffer_timeout_ms,omitempty"`
}

type edgeJSONPayload struct {
	Source        int      `json:"source"`
	Target        int      `json:"target"`
	Partitioner   string   `json:"partitioner"`
	TypeNumber    int      `json:"type_number,omitempty"`
	SelectedNames []string `json:"selected_names,omitempty"`
	OutputTag     string   `json:"output_tag,omitempty"`
}

func renderGraphJSON(w io.Writer, g *graph.StreamGraph) error {
	payload := graphJSONPayload{
		JobID:   g.JobID().String(),
		JobName: g.JobName(),
		Sources: g.SourceIDs(),
		Sinks:   g.SinkIDs(),
	}

	for _, node := range g.Nodes() {
		p := nodeJSONPayload{
			ID:               node.ID,
			Name:             node.Name,
			Parallelism:      node.Parallelism,
			SlotSharingGroup: node.SlotSharingGroup,
			UID:              node.UID,
		}
		if node.MaxParallelism > 0 {
			p.MaxParallelism = node.MaxParallelism
		}
		if node.BufferTimeout >= 0 {
			ms := node.BufferTimeout.Milliseconds()
			p.BufferTimeoutMS = &ms
		}
		payload.Nodes = append(payload.Nodes, p)
	}

	for _, edge := range g.Edges() {
		p := edgeJSONPayload{
			Source:        edge.SourceID,
			Target:        edge.TargetID,
			Partitioner:   edge.Partitioner.Kind(),
			TypeNumber:    edge.TypeNumber,
			SelectedNames: edge.SelectedNames,
		}
		if edge.OutputTag != nil {
			p.OutputTag = edge.OutputTag.ID()
		}
		payload.Edges = append(payload.Edges, p)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
