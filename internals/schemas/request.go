package schemas

import (
	z "github.com/Oudwins/zog"
)

type EventRequest struct {
	UserID  int64  `json:"userId" zog:"userId"`
	ChatID  int64  `json:"chatId" zog:"chatId"`
	Message string `json:"message" zog:"message"`
}

var EventRequestSchema = z.Struct(z.Shape{
	"UserID":  z.Int64().Required().GT(0),
	"ChatID":  z.Int64().Required().GT(0),
	"Message": z.String().Required().Trim(),
})

type AbortRequest struct {
	UserID int64 `json:"userId" zog:"userId"`
}

var AbortRequestSchema = z.Struct(z.Shape{
	"UserID": z.Int64().Required().GT(0),
})
