package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFields(t *testing.T) {
	tests := []struct {
		name    string
		fields  []Field
		wantErr error
	}{
		{
			name: "valid declarations",
			fields: []Field{
				{Name: "title", Type: String, Required: true},
				{Name: "views", Type: Integer, Default: 0},
				{Name: "stage", Type: MustEnum("a", "b"), Default: "b"},
			},
		},
		{name: "no fields", fields: nil},
		{name: "missing type", fields: []Field{{Name: "x"}}, wantErr: ErrInvalidField},
		{name: "empty name", fields: []Field{{Type: Text}}, wantErr: ErrInvalidField},
		{name: "name with a space", fields: []Field{{Name: "a b", Type: Text}}, wantErr: ErrInvalidField},
		{name: "reserved name", fields: []Field{{Name: "id", Type: Integer}}, wantErr: ErrReservedField},
		{name: "duplicate name", fields: []Field{{Name: "x", Type: Text}, {Name: "x", Type: Text}}, wantErr: ErrDuplicateField},
		{name: "bad default", fields: []Field{{Name: "x", Type: Boolean, Default: "yes"}}, wantErr: ErrTypeMismatch},
		{name: "enum default outside states", fields: []Field{{Name: "x", Type: MustEnum("a"), Default: "z"}}, wantErr: ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFields(tt.fields)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidIdentifier(t *testing.T) {
	for _, ok := range []string{"a", "_x", "user_id", "Col9"} {
		assert.True(t, ValidIdentifier(ok), ok)
	}
	for _, bad := range []string{"", "9a", "a-b", "a;b", "naïve"} {
		assert.False(t, ValidIdentifier(bad), bad)
	}
}

func TestReservedFields(t *testing.T) {
	names := []string{}
	for _, f := range ReservedFields() {
		names = append(names, f.Name)
		assert.True(t, IsReserved(f.Name))
	}
	assert.Equal(t, []string{"id", "created", "updated"}, names)
	assert.False(t, IsReserved("name"))
}
