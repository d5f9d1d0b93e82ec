package model

import (
	"strconv"
	"time"
)

// ClientRecord - строка листа клиентов
type ClientRecord struct {
	Row       int
	UserID    int64
	Handle    string
	Name      string
	FirstSeen time.Time
	LastSeen  time.Time
}

// UserHandle возвращает @username или ID:<id> если username не задан
func UserHandle(username string, userID int64) string {
	if username != "" {
		return "@" + username
	}
	return "ID:" + strconv.FormatInt(userID, 10)
}
