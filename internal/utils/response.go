package utils

// Envelope is the JSON body of every API response.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// Success wraps data in a successful envelope.
func Success(status int, data any, message string) Envelope {
	return Envelope{StatusCode: status, Data: data, Message: message, Success: status < 400}
}

// Failure builds an error envelope with no data.
func Failure(status int, message string) Envelope {
	return Envelope{StatusCode: status, Data: nil, Message: message, Success: false}
}
