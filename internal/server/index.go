package server

// indexHTML is the embedded single-page front end. It uploads images as
// base64 data URLs to /api/stitch and renders the returned mosaic, with no
// external asset dependencies.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Autoflight</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 0; padding: 20px; background: #f5f5f5; color: #333; }
    h1 { margin-top: 0; }
    .panel { background: #fff; border: 1px solid #ddd; border-radius: 6px; padding: 16px; margin-bottom: 16px; }
    label { display: inline-block; margin-right: 12px; }
    button { padding: 8px 16px; border: 0; border-radius: 4px; background: #2563eb; color: #fff; cursor: pointer; }
    button:disabled { background: #9ca3af; cursor: default; }
    #status { margin-left: 12px; color: #666; }
    #error { color: #b91c1c; }
    #result img { max-width: 100%; border: 1px solid #ccc; border-radius: 4px; }
  </style>
</head>
<body>
  <h1>Autoflight</h1>
  <div class="panel">
    <p>Select overlapping photographs to compose into a single orthomosaic.</p>
    <input type="file" id="files" multiple accept="image/*">
    <label>Mode:
      <select id="mode">
        <option value="panorama">panorama</option>
        <option value="scans">scans</option>
      </select>
    </label>
    <button id="go">Stitch</button>
    <span id="status"></span>
    <p id="error"></p>
  </div>
  <div class="panel" id="result"></div>
  <script>
    const readAsDataURL = (file) => new Promise((resolve, reject) => {
      const reader = new FileReader();
      reader.onload = () => resolve(reader.result);
      reader.onerror = reject;
      reader.readAsDataURL(file);
    });

    document.getElementById('go').addEventListener('click', async () => {
      const files = [...document.getElementById('files').files];
      const errorEl = document.getElementById('error');
      const statusEl = document.getElementById('status');
      const resultEl = document.getElementById('result');
      errorEl.textContent = '';
      resultEl.innerHTML = '';
      if (files.length === 0) {
        errorEl.textContent = 'Choose at least one image first.';
        return;
      }
      const button = document.getElementById('go');
      button.disabled = true;
      statusEl.textContent = 'Stitching ' + files.length + ' image(s)...';
      try {
        const images = await Promise.all(files.map(readAsDataURL));
        const mode = document.getElementById('mode').value;
        const resp = await fetch('/api/stitch', {
          method: 'POST',
          headers: { 'Content-Type': 'application/json' },
          body: JSON.stringify({ images, mode }),
        });
        const body = await resp.json();
        if (!body.success) {
          errorEl.textContent = body.error || ('Request failed with status ' + resp.status);
          return;
        }
        const img = document.createElement('img');
        img.src = 'data:image/png;base64,' + body.image;
        resultEl.appendChild(img);
        statusEl.textContent = body.width + 'x' + body.height + ' from ' + body.image_count + ' image(s)';
      } catch (err) {
        errorEl.textContent = String(err);
      } finally {
        button.disabled = false;
        if (!statusEl.textContent.includes('x')) statusEl.textContent = '';
      }
    });
  </script>
</body>
</html>
`
