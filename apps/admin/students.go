package main

import (
	"context"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/trezcool/scolarite/core/grade"
)

// passingAverage splits green from red averages in the students report.
const passingAverage = 10

func (cli *commandLine) students() error {
	ctx := context.Background()
	students, err := cli.accSvc.QueryStudents(ctx)
	if err != nil {
		return err
	}

	pass := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()

	table := tablewriter.NewWriter(cli.out)
	table.SetHeader([]string{"Matricule", "Nom", "Notes", "Réclamations", "Moyenne"})
	for _, stud := range students {
		grades, err := cli.gradeSvc.QueryByStudent(ctx, stud.ID)
		if err != nil {
			return err
		}
		var disputed int
		for _, g := range grades {
			if g.IsDisputed() {
				disputed++
			}
		}

		avg := grade.WeightedAverage(grades)
		avgStr := strconv.FormatFloat(avg, 'f', 2, 64)
		if avg >= passingAverage {
			avgStr = pass(avgStr)
		} else {
			avgStr = fail(avgStr)
		}
		table.Append([]string{stud.Matricule, stud.Name, strconv.Itoa(len(grades)), strconv.Itoa(disputed), avgStr})
	}
	table.SetFooter([]string{"", "", "", "Étudiants", strconv.Itoa(len(students))})
	table.Render()
	return nil
}
