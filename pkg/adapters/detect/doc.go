// Package detect provides object detector implementations.
//
// Implementations:
//   - ollama: pretrained vision model served by Ollama
//   - saliency: local edge/contrast heuristic, used when no model endpoint
//     is configured
package detect
