package model

// Question -- загадка с единственным ответом-словом.
type Question struct {
	ID     int64
	Text   string
	Answer string
}
