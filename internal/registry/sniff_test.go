package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSniff(t *testing.T) {
	tests := []struct {
		name   string
		sample string
		want   string
		ok     bool
	}{
		{
			name:   "comma",
			sample: "RUC,ACTIVIDAD_ECONOMICA,CODIGO_CIIU\n1,venta de libros,G476101\n2,panaderia,C1071\n",
			want:   ",",
			ok:     true,
		},
		{
			name:   "semicolon",
			sample: "RUC;ACTIVIDAD_ECONOMICA;CODIGO_CIIU\n1;venta de libros;G476101\n",
			want:   ";",
			ok:     true,
		},
		{
			name:   "tab",
			sample: "RUC\tACTIVIDAD_ECONOMICA\n1\tventa de libros\n",
			want:   "\t",
			ok:     true,
		},
		{
			name:   "pipe",
			sample: "RUC|ACTIVIDAD_ECONOMICA\n1|venta de libros\n",
			want:   "|",
			ok:     true,
		},
		{
			name:   "double space",
			sample: "RUC  ACTIVIDAD  CODIGO\n1  venta de libros  G4761\n",
			want:   DoubleSpace,
			ok:     true,
		},
		{
			name:   "commas inside quotes are ignored",
			sample: "RUC;ACTIVIDAD\n1;\"libros, revistas, diarios\"\n2;\"papel, tinta\"\n",
			want:   ";",
			ok:     true,
		},
		{
			name:   "more columns wins a consistency tie",
			sample: "A;B;C,D\n1;2;3,4\n",
			want:   ";",
			ok:     true,
		},
		{
			name:   "truncated last line is ignored",
			sample: "A,B\n1,2\n3,4\n5",
			want:   ",",
			ok:     true,
		},
		{
			name:   "single column",
			sample: "ACTIVIDAD\nventa de libros\n",
			ok:     false,
		},
		{
			name:   "empty",
			sample: "",
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Sniff(tt.sample, DefaultDelimiters)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSniff_InconsistentCountsRejected(t *testing.T) {
	sample := "a,b\nc\nd,e,f\ng\n"
	_, ok := Sniff(sample, []string{","})
	assert.False(t, ok)
}

func TestCountOutsideQuotes(t *testing.T) {
	assert.Equal(t, 2, countOutsideQuotes(`a,"b,c",d`, ","))
	assert.Equal(t, 2, countOutsideQuotes("a  b  c", DoubleSpace))
	assert.Equal(t, 1, countOutsideQuotes("a    b", DoubleSpace+DoubleSpace))
	assert.Equal(t, 0, countOutsideQuotes("abc", ";"))
}
