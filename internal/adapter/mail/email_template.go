package mail

import (
	"fmt"

	"github.com/paywatch/subscription-service/internal/domain/model"
)

func greetingName(user *model.User) string {
	if name := user.FullName(); name != "" {
		return name
	}
	return "there"
}

func periodRow(sub *model.Subscription) string {
	if sub.StartDate == nil || sub.EndDate == nil {
		return ""
	}
	return fmt.Sprintf(`<tr>
				<td style="padding: 8px 0; color: #666;">Billing period</td>
				<td style="padding: 8px 0; text-align: right;">%s &ndash; %s</td>
			</tr>`,
		sub.StartDate.Format("Jan 2, 2006"),
		sub.EndDate.Format("Jan 2, 2006"))
}

func paymentConfirmationHTML(user *model.User, sub *model.Subscription, plan model.Plan) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
	<title>Payment confirmed</title>
</head>
<body style="margin: 0; padding: 0; font-family: Helvetica, Arial, sans-serif; background-color: #f7f9fc;">
	<table align="center" border="0" cellpadding="0" cellspacing="0" width="600" style="border-collapse: collapse; background-color: #ffffff; border-radius: 8px; margin-top: 40px;">
		<tr>
			<td align="center" style="padding: 30px 0; background-color: #5271ff; border-radius: 8px 8px 0 0; color: #ffffff;">
				<h1 style="margin: 0; font-size: 24px;">Payment confirmed</h1>
			</td>
		</tr>
		<tr>
			<td style="padding: 30px 40px; color: #333;">
				<p>Hi %s,</p>
				<p>Thanks for your payment. Your <strong>%s</strong> subscription is now active.</p>
				<table width="100%%" style="border-collapse: collapse; margin: 20px 0;">
					<tr>
						<td style="padding: 8px 0; color: #666;">Plan</td>
						<td style="padding: 8px 0; text-align: right;">%s</td>
					</tr>
					<tr>
						<td style="padding: 8px 0; color: #666;">Amount</td>
						<td style="padding: 8px 0; text-align: right;">%s %s</td>
					</tr>
					%s
				</table>
				<p style="color: #999; font-size: 12px;">If you did not make this purchase, please contact support.</p>
			</td>
		</tr>
	</table>
</body>
</html>`,
		greetingName(user),
		plan.Name,
		plan.Name,
		sub.Amount.StringFixed(2),
		sub.Currency,
		periodRow(sub))
}

func invoiceHTML(user *model.User, sub *model.Subscription, plan model.Plan, invoiceURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
	<title>Complete your payment</title>
</head>
<body style="margin: 0; padding: 0; font-family: Helvetica, Arial, sans-serif; background-color: #f7f9fc;">
	<table align="center" border="0" cellpadding="0" cellspacing="0" width="600" style="border-collapse: collapse; background-color: #ffffff; border-radius: 8px; margin-top: 40px;">
		<tr>
			<td align="center" style="padding: 30px 0; background-color: #5271ff; border-radius: 8px 8px 0 0; color: #ffffff;">
				<h1 style="margin: 0; font-size: 24px;">Complete your payment</h1>
			</td>
		</tr>
		<tr>
			<td style="padding: 30px 40px; color: #333;">
				<p>Hi %s,</p>
				<p>Your invoice for the <strong>%s</strong> plan (%s %s) is ready. The payment link expires in 24 hours.</p>
				<p style="text-align: center; margin: 30px 0;">
					<a href="%s" style="background-color: #5271ff; color: #ffffff; padding: 12px 30px; border-radius: 6px; text-decoration: none; font-weight: bold;">Pay now</a>
				</p>
				<p style="color: #999; font-size: 12px;">If the button does not work, copy this link into your browser:<br/>%s</p>
			</td>
		</tr>
	</table>
</body>
</html>`,
		greetingName(user),
		plan.Name,
		sub.Amount.StringFixed(2),
		sub.Currency,
		invoiceURL,
		invoiceURL)
}
