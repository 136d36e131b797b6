package partials

var NoteConverted Partial = `
{{ define "content" }}
	<div style='text-align:left;'>
		<h3>A Convertible Note Has Converted</h3><br>
		The note held by investor {{ .Investor }} converted in round <b>{{ .Round }}</b>,
		principal and accrued interest included.<br>
		<br>
		<table style='border-collapse:collapse;'>
			<tr><td>Principal</td><td style='text-align:right;'>${{ .Principal }}</td></tr>
			<tr><td>Accrued interest</td><td style='text-align:right;'>${{ .Interest }}</td></tr>
			<tr><td>Conversion price</td><td style='text-align:right;'>${{ .Price }}</td></tr>
			<tr><td>Shares issued</td><td style='text-align:right;'>{{ .Shares }} {{ .ShareClass }}</td></tr>
			<tr><td>Total amount</td><td style='text-align:right;'>${{ .Total }}</td></tr>
		</table>
		<br>
		The note is now closed and the cap table has been updated.
	</div>
{{ end }}
`
