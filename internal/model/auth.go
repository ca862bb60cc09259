package model

// LoginRequest is the body of POST /v1/login.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// LoginResponse carries the backend's verdict; it holds no reusable credential.
type LoginResponse struct {
	Status string `json:"status"`
}
