package core

// export.go writes members and communication logs as downloads. Rows come
// out in input order and an empty input still produces the header row.
// Export never inspects content; only write errors fail it.

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Download file names and content types.
const (
	MembersCSVName        = "members.csv"
	MembersXLSXName       = "members.xlsx"
	CommunicationsCSVName = "communications.csv"
	SampleCSVName         = "sample_members.csv"

	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	membersSheet = "Members"
)

var MemberExportHeaders = []string{"Full Name", "Contact 1", "Contact 2", "Gender", "Email", "Category"}

var CommunicationExportHeaders = []string{"Recipients", "Type", "Message", "Sent At", "Sender"}

// SampleMemberRow is the example row of the import template.
var SampleMemberRow = []string{"John", "Doe", "+1234567890", "", "M", "john.doe@example.com", "Member"}

func memberExportRow(m Member) []string {
	return []string{
		m.FullName(),
		m.Contact1,
		m.Contact2,
		m.Gender.Label(),
		m.Email,
		string(m.Category),
	}
}

func communicationExportRow(c CommunicationLog) []string {
	return []string{
		strings.Join(c.Recipients, ", "),
		string(c.Type),
		c.Message,
		c.SentAt.UTC().Format(time.RFC3339),
		c.Sender,
	}
}

func WriteMembersCSV(w io.Writer, members []Member) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(MemberExportHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, m := range members {
		if err := cw.Write(memberExportRow(m)); err != nil {
			return fmt.Errorf("write member %s: %w", m.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteCommunicationsCSV(w io.Writer, logs []CommunicationLog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CommunicationExportHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, c := range logs {
		if err := cw.Write(communicationExportRow(c)); err != nil {
			return fmt.Errorf("write communication %s: %w", c.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMembersXLSX writes a workbook with a single "Members" sheet.
func WriteMembersXLSX(w io.Writer, members []Member) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", membersSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(membersSheet)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}

	if err := sw.SetRow("A1", toCells(MemberExportHeaders)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, m := range members {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toCells(memberExportRow(m))); err != nil {
			return fmt.Errorf("write member %s: %w", m.ID, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteSampleCSV writes the import template: the header plus one example row.
func WriteSampleCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(MemberColumns); err != nil {
		return err
	}
	if err := cw.Write(SampleMemberRow); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
