package remotefs

import "io"

// ProgressFunc receives the number of bytes transferred so far.
type ProgressFunc func(transferred int64)

// progressReader reports the running total after each Read.
type progressReader struct {
	r     io.Reader
	fn    ProgressFunc
	total int64
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	pr.total += int64(n)
	if n > 0 {
		pr.fn(pr.total)
	}
	return n, err
}

// progressWriter reports the running total after each Write.
type progressWriter struct {
	w     io.Writer
	fn    ProgressFunc
	total int64
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.total += int64(n)
	if n > 0 {
		pw.fn(pw.total)
	}
	return n, err
}
