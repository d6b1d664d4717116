package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// SMSService handles OTP delivery through the Fast2SMS API
type SMSService struct {
	APIKey  string
	APIPath string
	Client  *http.Client
}

// SMSResponse represents the response from the Fast2SMS API
type SMSResponse struct {
	Return    bool     `json:"return"`
	RequestID string   `json:"request_id"`
	Message   []string `json:"message"`
}

// NewSMSService creates a new SMS service instance
func NewSMSService() *SMSService {
	return &SMSService{
		APIKey:  os.Getenv("FAST2SMS_API_KEY"),
		APIPath: "https://www.fast2sms.com/dev/bulkV2",
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SendOTP sends an OTP via the Fast2SMS OTP route
func (s *SMSService) SendOTP(phoneNumber, otp string) error {
	if s.APIKey == "" {
		return fmt.Errorf("FAST2SMS_API_KEY is not configured")
	}

	// Fast2SMS expects local numbers without the country prefix
	number := strings.TrimPrefix(phoneNumber, "+91")
	number = strings.TrimPrefix(number, "+")

	form := url.Values{}
	form.Set("variables_values", otp)
	form.Set("route", "otp")
	form.Set("numbers", number)

	req, err := http.NewRequest("POST", s.APIPath, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("authorization", s.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("SMS API returned status %d: %s", resp.StatusCode, string(body))
	}

	var smsResp SMSResponse
	if err := json.Unmarshal(body, &smsResp); err != nil {
		return fmt.Errorf("failed to parse SMS response: %w", err)
	}
	if !smsResp.Return {
		return fmt.Errorf("SMS sending failed: %s", strings.Join(smsResp.Message, "; "))
	}

	log.Printf("OTP sent to %s, request id %s", phoneNumber, smsResp.RequestID)
	return nil
}

// SendOTPViaSMS sends a 6-digit OTP to the given phone number
func SendOTPViaSMS(phone string, otp string) error {
	smsService := NewSMSService()
	return smsService.SendOTP(phone, otp)
}
