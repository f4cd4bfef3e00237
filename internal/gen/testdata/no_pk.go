package testdata

type Event struct {
	Name    string
	Payload []byte
}
