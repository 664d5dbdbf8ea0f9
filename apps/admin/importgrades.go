package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/account"
	"github.com/trezcool/scolarite/core/grade"
)

var errMissingColumns = errors.New("the first row must hold `matricule` and `note` columns")

// importGrades records the scores of the first sheet of an .xlsx file the way the grade entry form does:
// blank scores are skipped, malformed ones only fail their own row.
func (cli *commandLine) importGrades(path string, subjectID int, session string) error {
	ctx := context.Background()

	f, err := excelize.OpenFile(path)
	if err != nil {
		return errors.Wrap(err, "opening spreadsheet")
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return errors.Wrap(err, "reading first sheet")
	}
	if len(rows) == 0 {
		return errMissingColumns
	}

	matCol, scoreCol := -1, -1
	for i, header := range rows[0] {
		switch core.CleanString(header, true /* lower */) {
		case "matricule":
			matCol = i
		case "note", "score":
			scoreCol = i
		}
	}
	if matCol < 0 || scoreCol < 0 {
		return errMissingColumns
	}

	entry := grade.BatchEntry{SubjectID: subjectID, Session: session, Scores: make(map[int]string)}
	codes := make(map[string]string) // score field -> matricule
	for i, row := range rows[1:] {
		matricule := cell(row, matCol)
		if matricule == "" {
			continue
		}
		acc, err := cli.accSvc.GetByMatricule(ctx, matricule)
		if err == nil && !acc.IsStudent() {
			err = account.ErrNotFound
		}
		if err != nil {
			if errors.Cause(err) == account.ErrNotFound {
				fmt.Fprintf(cli.out, "ligne %d : matricule inconnu %q\n", i+2, matricule)
				continue
			}
			return err
		}
		entry.Scores[acc.ID] = cell(row, scoreCol)
		codes[grade.ScoreField(acc.ID)] = acc.Matricule
	}

	res, err := cli.gradeSvc.RecordBatch(ctx, entry)
	if err != nil {
		return err
	}
	for _, fErr := range res.Errors {
		fmt.Fprintf(cli.out, "%s : %s\n", codes[fErr.Field], fErr.Error)
	}
	fmt.Fprintf(cli.out, "%d note(s) enregistrée(s), %d ignorée(s), %d en erreur\n",
		len(res.Recorded), len(res.Skipped), len(res.Errors))
	return nil
}

func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
