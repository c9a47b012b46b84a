package generation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRequestValidate(t *testing.T) {
	t.Parallel()

	valid := Request{
		UserID:     uuid.New(),
		SourceText: "The mitochondria is the powerhouse of the cell.",
		Category:   "biology",
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		mutate  func(*Request)
		wantErr error
	}{
		{
			name:    "missing_user",
			mutate:  func(r *Request) { r.UserID = uuid.Nil },
			wantErr: ErrEmptyUserID,
		},
		{
			name:    "missing_source_text",
			mutate:  func(r *Request) { r.SourceText = "" },
			wantErr: ErrEmptySourceText,
		},
		{
			name:    "missing_category",
			mutate:  func(r *Request) { r.Category = "" },
			wantErr: ErrEmptyCategory,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := valid
			tt.mutate(&req)
			assert.ErrorIs(t, req.Validate(), tt.wantErr)
		})
	}
}
