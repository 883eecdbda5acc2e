package model

type RegisterRequest struct {
	Fullname        string `json:"fullname"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	Fullname    string `json:"fullname"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

type CreateChatroomRequest struct {
	Name string `json:"name"`
}

type AddUsersRequest struct {
	UserIDs []int64 `json:"user_ids"`
}

type SendMessageRequest struct {
	Content     string `json:"content"`
	ImageBase64 string `json:"image_base64,omitempty"`
}
