// internal/service/transliterate.go
package service

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"printer-service/internal/model"
)

// foldASCII strips diacritics, e.g. "Observações" becomes "Observacoes"
func foldASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

func foldPtr(s *string) *string {
	if s == nil {
		return nil
	}
	folded := foldASCII(*s)
	return &folded
}

// transliterateJob returns a copy of job with every text field folded, for
// printers without an accented code page
func transliterateJob(job model.PrintJob) model.PrintJob {
	job.RestaurantName = foldASCII(job.RestaurantName)
	job.TableNumber = foldPtr(job.TableNumber)
	job.OrderNumber = foldPtr(job.OrderNumber)
	job.CustomerName = foldPtr(job.CustomerName)
	job.PaymentMethod = foldPtr(job.PaymentMethod)
	job.GeneralNote = foldPtr(job.GeneralNote)

	lines := make([]model.JobLine, len(job.Lines))
	for i, line := range job.Lines {
		line.Name = foldASCII(line.Name)
		line.Note = foldPtr(line.Note)
		lines[i] = line
	}
	job.Lines = lines
	return job
}
