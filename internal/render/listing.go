package render

import (
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/leofalp/sdtt/core/preset"
	"github.com/leofalp/sdtt/core/schema"
)

// PresetEntry is the JSON form of a preset listing row.
type PresetEntry struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Schemas     []string `json:"schemas"`
}

// SchemaEntry is the JSON form of a schema listing row.
type SchemaEntry struct {
	ID          string   `json:"id"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required"`
	Optional    []string `json:"optional,omitempty"`
}

// PresetEntries flattens a preset registry for listings.
func PresetEntries(reg *preset.Registry) []PresetEntry {
	presets := reg.List()
	out := make([]PresetEntry, 0, len(presets))
	for _, p := range presets {
		ids := make([]string, len(p.Schemas))
		for i, id := range p.Schemas {
			ids[i] = id.String()
		}
		out = append(out, PresetEntry{Name: p.Name, Description: p.Description, Schemas: ids})
	}
	return out
}

// SchemaEntries flattens a schema registry for listings.
func SchemaEntries(reg *schema.Registry) []SchemaEntry {
	defs := reg.List()
	out := make([]SchemaEntry, 0, len(defs))
	for _, d := range defs {
		required := d.Required()
		if required == nil {
			required = []string{}
		}
		out = append(out, SchemaEntry{
			ID:          d.ID().String(),
			Description: d.Description,
			Required:    required,
			Optional:    d.Optional(),
		})
	}
	return out
}

// Presets lists the presets of reg.
func Presets(w io.Writer, reg *preset.Registry, format Format) error {
	entries := PresetEntries(reg)
	if format == FormatJSON {
		return JSON(w, entries)
	}

	table := newTable(w, []string{"Preset", "Schemas", "Description"})
	for _, e := range entries {
		table.Append([]string{e.Name, strings.Join(e.Schemas, ", "), e.Description})
	}
	table.Render()
	return nil
}

// Schemas lists the schema definitions of reg.
func Schemas(w io.Writer, reg *schema.Registry, format Format) error {
	entries := SchemaEntries(reg)
	if format == FormatJSON {
		return JSON(w, entries)
	}

	table := newTable(w, []string{"Schema", "Required", "Optional"})
	for _, e := range entries {
		table.Append([]string{e.ID, strings.Join(e.Required, ", "), strings.Join(e.Optional, ", ")})
	}
	table.Render()
	return nil
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetCenterSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}
