package receiver

import (
	"strconv"
	"strings"
)

// ---------- Callback keys ----------

const (
	CbStart   = "start"
	CbBack    = "back"
	CbLogout  = "logout"
	CbRestart = "restart"
	CbRetry   = "retry"
	CbConfirm = "confirm"
	CbCancel  = "cancel"
	CbNoop    = "noop"

	PSpecialty = "sp:"   // sp:general
	PSlot      = "slot:" // slot:1042
	PPage      = "pg:"   // pg:3, pg:next, pg:prev, pg:b10, pg:f10
)

const (
	PageNext    = "next"
	PagePrev    = "prev"
	PageBack10  = "b10"
	PageAhead10 = "f10"
)

func Is(k, prefix string) (string, bool) {
	if strings.HasPrefix(k, prefix) {
		return strings.TrimPrefix(k, prefix), true
	}
	return "", false
}

// ParseSlot extracts the slot id from a slot: key.
func ParseSlot(data string) (int64, bool) {
	v, ok := Is(data, PSlot)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func PageKey(page int) string { return PPage + strconv.Itoa(page) }

func SlotKey(id int64) string { return PSlot + strconv.FormatInt(id, 10) }
