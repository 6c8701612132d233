package grade

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExportCSV(t *testing.T) {
	ana := SheetRow{
		StudentName:        "Ana Silva Santos",
		RegistrationNumber: "2024001",
		Scores:             [4]*float64{score(8.5), score(7.8), score(9), score(8.2)},
	}
	ana.Summary = Summarize(ana.Scores)

	bruno := SheetRow{
		StudentName:        `Bruno "Bi" Lima`,
		RegistrationNumber: "2024002",
		Scores:             [4]*float64{score(6), nil, nil, nil},
	}
	bruno.Summary = Summarize(bruno.Scores)

	carla := SheetRow{StudentName: "Carla", RegistrationNumber: "2024003"}
	carla.Summary = Summarize(carla.Scores)

	got := ExportCSV(Sheet{Rows: []SheetRow{ana, bruno, carla}})
	want := "Matrícula,Aluno,1º Bimestre,2º Bimestre,3º Bimestre,4º Bimestre,Média,Situação\n" +
		`"2024001","Ana Silva Santos",8.5,7.8,9.0,8.2,8.4,Aprovado` + "\n" +
		`"2024002","Bruno ""Bi"" Lima",6.0,,,,6.0,Pendente` + "\n" +
		`"2024003","Carla",,,,,,Pendente`
	assert.Equal(t, want, got)
}

func TestExportCSV_empty(t *testing.T) {
	assert.Equal(t, "Matrícula,Aluno,1º Bimestre,2º Bimestre,3º Bimestre,4º Bimestre,Média,Situação", ExportCSV(Sheet{}))
}

func Test_resolveColumns(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    [numCols]int
	}{
		{
			name:    "exported header",
			headers: exportHeader,
			want:    [numCols]int{0, 1, 2, 3, 4, 5},
		},
		{
			name:    "accents, case and order",
			headers: []string{"ALUNO", "4 bimestre", "matricula", "Bimestre 1", "2º bim", "3 BIMESTRE"},
			want:    [numCols]int{2, 0, 3, 4, 5, 1},
		},
		{
			name:    "english headers",
			headers: []string{"Registration", "Student name", "Bim1", "Bim2", "Bim3", "Bim4"},
			want:    [numCols]int{0, 1, 2, 3, 4, 5},
		},
		{
			name:    "missing columns",
			headers: []string{"Matrícula", "1º Bimestre", "Média"},
			want:    [numCols]int{0, -1, 1, -1, -1, -1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveColumns(tt.headers))
		})
	}
}
