// Package editor implements the pixel transform operations: resize,
// grayscale, rotate, crop, blur, unsharp-mask sharpen, brightness, contrast
// and watermark.
//
// Every operation reads its input from the uploaded folder and writes a
// suffixed result into the edited folder.
package editor
