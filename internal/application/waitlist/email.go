package waitlist

import "fmt"

const welcomeSubject = "You're on the waitlist"

// welcomeBody renders the welcome email. Kept as a plain formatted string
// rather than html/template since nothing user-controlled is interpolated.
func welcomeBody(referralCode string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#0b0b0f;font-family:Arial,Helvetica,sans-serif;color:#e8e8ee;">
  <div style="max-width:560px;margin:0 auto;padding:32px 24px;">
    <h1 style="font-size:22px;margin:0 0 16px;">Welcome aboard</h1>
    <p style="font-size:15px;line-height:1.6;margin:0 0 16px;">
      You're officially on the waitlist. We'll email you the moment your spot opens up.
    </p>
    <p style="font-size:15px;line-height:1.6;margin:0 0 8px;">
      Want to move up the list? Share your referral code:
    </p>
    <div style="background-color:#17171f;border-radius:8px;padding:16px;text-align:center;margin:0 0 24px;">
      <span style="font-size:20px;letter-spacing:3px;font-weight:bold;">%s</span>
    </div>
    <p style="font-size:12px;color:#8a8a96;margin:0;">
      You received this email because you signed up for the waitlist.
    </p>
  </div>
</body>
</html>`, referralCode)
}
