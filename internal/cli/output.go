package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Format — формат вывода данных.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat разбирает значение флага --output.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table or json)", s)
	}
}

// Field — строка детального вывода (show).
type Field struct {
	Name  string
	Value any
}

// Output форматирует ответы API: данные в stdout, сообщения в stderr.
type Output struct {
	format Format
	w      io.Writer
	errW   io.Writer
}

// NewOutput создаёт Output поверх stdout/stderr.
func NewOutput(format Format) *Output {
	return NewOutputTo(format, os.Stdout, os.Stderr)
}

// NewOutputTo создаёт Output с произвольными потоками вывода.
func NewOutputTo(format Format, w, errW io.Writer) *Output {
	if format == "" {
		format = FormatTable
	}
	return &Output{format: format, w: w, errW: errW}
}

// Print выводит список: таблицу или jsonData целиком.
// Пустой список в табличном режиме печатает только сообщение в stderr.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) error {
	if o.format == FormatJSON {
		return o.JSON(jsonData)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(o.errW, "No results.")
		return err
	}
	return o.Table(headers, rows)
}

// Detail выводит один объект: пары «поле: значение» или jsonData.
// Пустые значения пропускаются, вложенные объекты печатаются компактным JSON.
func (o *Output) Detail(fields []Field, jsonData any) error {
	if o.format == FormatJSON {
		return o.JSON(jsonData)
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	for _, f := range fields {
		value := formatValue(f.Value)
		if value == "" {
			continue
		}
		fmt.Fprintf(tw, "%s:\t%s\n", f.Name, value)
	}
	return tw.Flush()
}

// Table выводит таблицу через tabwriter.
func (o *Output) Table(headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	return tw.Flush()
}

// JSON выводит v в JSON с отступами.
func (o *Output) JSON(v any) error {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

// Error выводит ошибку в stderr. Ошибки API в режиме JSON
// печатаются в форме ответа API: {"error": {"code", "message"}}.
func (o *Output) Error(err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		fmt.Fprintln(o.errW, "Error: "+err.Error())
		return
	}

	if o.format == FormatJSON {
		enc := json.NewEncoder(o.errW)
		enc.Encode(map[string]any{"error": apiErr})
		return
	}
	fmt.Fprintf(o.errW, "Error [%s]: %s (HTTP %d)\n", apiErr.Code, apiErr.Message, apiErr.Status)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any:
		if len(val) == 0 {
			return ""
		}
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}
