package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useLocalZone(t *testing.T, loc *time.Location) {
	prev := LocalZone
	LocalZone = loc
	t.Cleanup(func() { LocalZone = prev })
}

func TestParseMessage_Recipient(t *testing.T) {
	_, err := ParseMessage(map[string]any{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParseMessage(map[string]any{"recipient": "1234567890"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParseMessage(map[string]any{"recipient": "whatsapp:+123456789012345678900"})
	assert.ErrorIs(t, err, ErrValidation)

	m, err := ParseMessage(map[string]any{"recipient": "+11234567890"})
	require.NoError(t, err)
	assert.Equal(t, "+11234567890", m.Recipient)
	assert.Nil(t, m.MessageID)

	_, err = ParseMessage(map[string]any{"recipient": strings.Repeat("1", 30)})
	assert.NoError(t, err)
}

func TestParseMessage_MessageIDLength(t *testing.T) {
	m, err := ParseMessage(map[string]any{"recipient": "+11234567890", "messageId": ""})
	require.NoError(t, err)
	assert.Nil(t, m.MessageID)

	_, err = ParseMessage(map[string]any{"recipient": "+11234567890", "messageId": "sm1234567890"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "messageId", verr.Fields[0].Field)

	_, err = ParseMessage(map[string]any{"recipient": "+11234567890", "messageId": "SM0123456789abcdefghijklmnopqrstuvw"})
	assert.Error(t, err)

	for _, id := range []string{"sm0123456789abcdefghijklmnopqrstuv", "SM0123456789ABCDEFGHIJKLMNOPQRSTUV"} {
		m, err = ParseMessage(map[string]any{"recipient": "+11234567890", "messageId": id})
		require.NoError(t, err)
		assert.Equal(t, id, *m.MessageID)
	}
}

func TestParseMessage_BlankToNil(t *testing.T) {
	m, err := ParseMessage(map[string]any{
		"recipient":   "+11234567890",
		"id":          "",
		"status":      "",
		"sentDT":      "",
		"deliveredDT": " ",
		"errorCode":   "",
		"created":     "",
	})
	require.NoError(t, err)

	assert.Nil(t, m.ID)
	assert.Nil(t, m.Status)
	assert.Nil(t, m.SentDT)
	assert.Nil(t, m.DeliveredDT)
	assert.Nil(t, m.ErrorCode)
	assert.Nil(t, m.Created)
}

func TestParseMessage_TypeConversion(t *testing.T) {
	useLocalZone(t, time.UTC)

	m, err := ParseMessage(map[string]any{
		"recipient":   "+11234567890",
		"id":          "123",
		"sentDT":      "Fri, 28 Mar 2025 06:25:00 -0800",
		"deliveredDT": "2503281425",
		"errorCode":   "123",
		"created":     "2025-03-28T14:25",
	})
	require.NoError(t, err)

	want := time.Date(2025, 3, 28, 14, 25, 0, 0, time.UTC)
	assert.Equal(t, int64(123), *m.ID)
	assert.Equal(t, int64(123), *m.ErrorCode)
	assert.Equal(t, want, *m.SentDT)
	assert.Equal(t, want, *m.DeliveredDT)
	assert.Equal(t, want, *m.Created)
}

func TestParseMessage_NativeTimestamps(t *testing.T) {
	dt := time.Date(2025, 3, 28, 14, 25, 0, 0, time.UTC)
	m, err := ParseMessage(map[string]any{
		"recipient":   "+11234567890",
		"sentDT":      dt,
		"deliveredDT": dt,
		"created":     dt,
	})
	require.NoError(t, err)

	assert.Equal(t, dt, *m.SentDT)
	assert.Equal(t, dt, *m.DeliveredDT)
	assert.Equal(t, dt, *m.Created)
}

func TestParseMessage_InvalidTimestamps(t *testing.T) {
	_, err := ParseMessage(map[string]any{
		"recipient":   "+11234567890",
		"sentDT":      "2025-03-28 14:25",
		"deliveredDT": "2025-03-28",
	})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 2)
}

func TestParseMessage_NonPositiveIDs(t *testing.T) {
	_, err := ParseMessage(map[string]any{"recipient": "+11234567890", "id": 0})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParseMessage(map[string]any{"recipient": "+11234567890", "eventId": "-4"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseTimestamp_Scenarios(t *testing.T) {
	useLocalZone(t, time.UTC)

	sent, err := ParseTimestamp(RoleSent, "Fri, 28 Mar 2025 06:25:00 -0800")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 28, 14, 25, 0, 0, time.UTC), sent)

	delivered, err := ParseTimestamp(RoleDelivered, "2503281426")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 28, 14, 26, 0, 0, time.UTC), delivered)

	triggered, err := ParseTimestamp(RoleTriggered, "2022-4-28 14:21")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, 4, 28, 14, 21, 0, 0, time.UTC), triggered)
}

func TestParseTimestamp_SentConvertsToLocalZone(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	useLocalZone(t, tokyo)

	sent, err := ParseTimestamp(RoleSent, "Fri, 28 Mar 2025 06:25:00 -0800")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 28, 23, 25, 0, 0, time.UTC), sent)
}

func TestParseTimestamp_GrammarsAreNotInterchangeable(t *testing.T) {
	_, err := ParseTimestamp(RoleTriggered, "2503281426")
	assert.Error(t, err)

	_, err = ParseTimestamp(RoleDelivered, "2025-03-28 14:26")
	assert.Error(t, err)

	_, err = ParseTimestamp(RoleSent, "2503281426")
	assert.Error(t, err)
}

func TestParseTimestamp_SingleDigitFields(t *testing.T) {
	useLocalZone(t, time.UTC)

	triggered, err := ParseTimestamp(RoleTriggered, "2022-4-8 9:5")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, 4, 8, 9, 5, 0, 0, time.UTC), triggered)

	sent, err := ParseTimestamp(RoleSent, "Fri, 4 Apr 2025 06:25:00 -0800")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 4, 14, 25, 0, 0, time.UTC), sent)
}

func TestFieldsFor(t *testing.T) {
	assert.Equal(t, []string{"sentDT"}, FieldsFor(RoleSent))
	assert.Equal(t, []string{"deliveredDT"}, FieldsFor(RoleDelivered))
	assert.Equal(t, []string{"created", "updated"}, FieldsFor(RoleGeneric))
}

func TestFieldRoles(t *testing.T) {
	expected := map[string]Role{
		"triggeredDT":       RoleTriggered,
		"readingDT":         RoleReading,
		"originalReadingDT": RoleOriginalReading,
		"sentDT":            RoleSent,
		"deliveredDT":       RoleDelivered,
		"created":           RoleGeneric,
		"updated":           RoleGeneric,
	}
	assert.Equal(t, expected, fieldRoles)

	// a field missing from the table is reported instead of parsed
	r := newPayloadReader("Message", map[string]any{"expiresDT": "2025-03-28 14:25:00"})
	assert.Nil(t, r.timestamp("expiresDT"))
	require.Error(t, r.verr.errOrNil())
	assert.Equal(t, "expiresDT", r.verr.Fields[0].Field)
}

func TestMessage_UpdateArgs(t *testing.T) {
	sent := time.Date(2025, 3, 28, 14, 25, 0, 0, time.UTC)
	delivered := time.Date(2025, 3, 28, 14, 26, 0, 0, time.UTC)
	updated := time.Date(2022, 4, 28, 14, 21, 0, 0, time.UTC)
	m := &Message{
		Recipient:   "+11234567892",
		MessageID:   ptr("SM0123456789abcdefghijklmnopqrstuv"),
		Status:      ptr("delivered"),
		SentDT:      &sent,
		DeliveredDT: &delivered,
		Updated:     &updated,
	}

	args, err := m.UpdateArgs()
	require.NoError(t, err)
	assert.Equal(t, []any{"delivered", sent, delivered, nil, nil, updated, "SM0123456789abcdefghijklmnopqrstuv"}, args)

	m.MessageID = nil
	_, err = m.UpdateArgs()
	assert.ErrorIs(t, err, ErrMissingMessageID)
}

func TestMessage_Validate(t *testing.T) {
	assert.NoError(t, (&Message{Recipient: "+11234567890"}).Validate())
	assert.Error(t, (&Message{Recipient: "aaa"}).Validate())
	assert.Error(t, (&Message{Recipient: "+11234567890", MessageID: ptr("short")}).Validate())
	assert.Error(t, ValidateRecipient("+1"))
	assert.NoError(t, ValidateRecipient("+1aaabbbcccc"))
}

func TestCoerce(t *testing.T) {
	v, err := Coerce[int64]("  ", parseInt)
	assert.NoError(t, err)
	assert.Nil(t, v)

	v, err = Coerce[int64](" 42 ", parseInt)
	require.NoError(t, err)
	assert.Equal(t, int64(42), *v)

	_, err = Coerce[int64]("forty", parseInt)
	assert.Error(t, err)
}

func TestDispatchExhaustedError(t *testing.T) {
	err := &DispatchExhaustedError{ErrorCodes: []*int64{ptr(int64(21211)), nil}}
	assert.ErrorIs(t, err, ErrDispatchExhausted)
	assert.Equal(t, "Sending Twilio messages resulted in errors: 21211, none", err.Error())
}
