package api

// Endpoint names, used for metrics labels and error ops.
const (
	EndpointLogin        = "login"
	EndpointVerifyOTP    = "verify_otp"
	EndpointRegister     = "register"
	EndpointConversation = "conversation"
)

type loginRequest struct {
	Email string `json:"email"`
}

// LoginResponse is the reply to an OTP request.
type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type verifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyResponse carries the session token on success.
type VerifyResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	Token         string `json:"token,omitempty"`
	AccountExists bool   `json:"account_exists"`
}

// SocialLinks maps platform name to profile URL.
type SocialLinks map[string]string

// RegisterRequest is the user record submitted at the end of onboarding. The
// backend reads social links from social_links; social_media is the draft's
// own copy and is sent as well.
type RegisterRequest struct {
	KID             string      `json:"kid"`
	Username        string      `json:"username"`
	FullName        string      `json:"full_name"`
	Email           string      `json:"email"`
	Phone           string      `json:"phone"`
	Age             int         `json:"age"`
	DateOfBirth     string      `json:"date_of_birth"`
	Gender          string      `json:"gender"`
	Location        string      `json:"location"`
	Country         string      `json:"country"`
	Languages       []string    `json:"languages"`
	PrimaryLanguage string      `json:"primary_language"`
	ProfilePicture  string      `json:"profile_picture"`
	Gallery         []string    `json:"gallery"`
	Bio             string      `json:"bio"`
	SocialMedia     SocialLinks `json:"social_media"`
	SocialLinks     SocialLinks `json:"social_links"`
}

// RegisterResponse is only inspected for the success flag. A 2xx reply without
// the flag counts as success.
type RegisterResponse struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
}

// Succeeded reports whether the backend accepted the registration.
func (r RegisterResponse) Succeeded() bool {
	return r.Success == nil || *r.Success
}

type conversationRequest struct {
	Message string `json:"message"`
}

// ConversationResponse is the AI reply.
type ConversationResponse struct {
	Success   bool   `json:"success"`
	AIMessage string `json:"ai_message,omitempty"`
	Message   string `json:"message,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
