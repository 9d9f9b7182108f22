package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func Test_Validator_CheckString(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name     string
		value    *string
		required bool
		tag      string
		want     []string
	}{
		{name: "missing required", value: nil, required: true, tag: TagTitle, want: []string{MsgFieldRequired}},
		{name: "missing optional", value: nil, required: false, tag: TagTitle},
		{name: "blank", value: lo.ToPtr("   "), required: true, tag: TagTitle, want: []string{"This field may not be blank."}},
		{name: "too long title", value: lo.ToPtr(strings.Repeat("x", MaxTitleLen+1)), required: true, tag: TagTitle,
			want: []string{"Ensure this field has no more than 100 characters."}},
		{name: "title at limit", value: lo.ToPtr(strings.Repeat("é", MaxTitleLen)), required: true, tag: TagTitle},
		{name: "bad username", value: lo.ToPtr("bob smith"), required: true, tag: TagUsername,
			want: []string{"Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."}},
		{name: "good username", value: lo.ToPtr("bob.smith+1@x_y-z"), required: true, tag: TagUsername},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := FieldErrors{}
			v.CheckString(errs, "field", tt.value, tt.required, tt.tag)
			if tt.want == nil {
				require.Empty(t, errs)
				require.NoError(t, errs.Err())
				return
			}
			require.Equal(t, tt.want, errs["field"])
		})
	}
}

func Test_Validator_AllTagsRegistered(t *testing.T) {
	v := NewValidator()

	tags := map[string]string{
		"username":  TagUsername,
		"password":  TagPassword,
		"title":     TagTitle,
		"content":   TagContent,
		"not blank": TagNotBlank,
		"recipient": TagRecipient,
	}
	for name, tag := range tags {
		t.Run(name, func(t *testing.T) {
			for _, value := range []string{"Hi", "", "  ", "bob"} {
				require.NotPanics(t, func() {
					v.CheckString(FieldErrors{}, "field", lo.ToPtr(value), true, tag)
				})
			}
		})
	}
}

func Test_Validator_NotBlank(t *testing.T) {
	v := NewValidator()

	errs := FieldErrors{}
	v.CheckString(errs, "message_title", lo.ToPtr("Hi"), true, TagTitle)
	require.Empty(t, errs)

	v.CheckString(errs, "message_to", lo.ToPtr("\t \n"), true, TagRecipient)
	require.Equal(t, []string{"This field may not be blank."}, errs["message_to"])
}

func Test_FieldErrors_Err(t *testing.T) {
	req := require.New(t)

	errs := FieldErrors{}
	errs.Add("message_to", MsgFieldRequired)
	errs.Add("message_title", MsgFieldRequired)

	err := errs.Err()
	req.Error(err)
	req.True(errors.Is(err, ErrValidation))

	var cerr *Error
	req.True(errors.As(err, &cerr))
	req.Equal(KindValidation, cerr.Kind)
	req.Len(cerr.Fields, 2)
	req.Equal("invalid input: message_title: This field is required., message_to: This field is required.", cerr.Error())
}
