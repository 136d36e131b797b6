package partials

var SafeConverted Partial = `
{{ define "content" }}
	<div style='text-align:left;'>
		<h3>A SAFE Has Converted</h3><br>
		The SAFE held by investor {{ .Investor }} converted in round <b>{{ .Round }}</b>.<br>
		<br>
		<table style='border-collapse:collapse;'>
			<tr><td>Principal</td><td style='text-align:right;'>${{ .Principal }}</td></tr>
			<tr><td>Conversion price</td><td style='text-align:right;'>${{ .Price }}</td></tr>
			<tr><td>Shares issued</td><td style='text-align:right;'>{{ .Shares }} {{ .ShareClass }}</td></tr>
			<tr><td>Total amount</td><td style='text-align:right;'>${{ .Total }}</td></tr>
		</table>
		<br>
		The cap table has been updated to reflect the new shares.
	</div>
{{ end }}
`
